package response

import (
	"digital-store/internal/domain/job"
	"digital-store/internal/usecase/commands"
)

type ReconcileResponse struct {
	Scanned  int `json:"scanned"`
	Replayed int `json:"replayed"`
	Failed   int `json:"failed"`
}

func FromReconcileReport(r commands.ReconcileReport) ReconcileResponse {
	return ReconcileResponse{Scanned: r.Scanned, Replayed: r.Replayed, Failed: r.Failed}
}

type SweepResponse struct {
	Expired int `json:"expired"`
}

type RetryJobsResponse struct {
	Requeued []string `json:"requeued"`
}

func FromJobKinds(kinds []job.Kind) RetryJobsResponse {
	out := make([]string, 0, len(kinds))
	for _, k := range kinds {
		out = append(out, string(k))
	}
	return RetryJobsResponse{Requeued: out}
}
