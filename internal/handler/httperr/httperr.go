package httperr

import (
	"net/http"

	"digital-store/internal/pkg/errs"

	"github.com/gin-gonic/gin"
)

type Response struct {
	Status int `json:"-"`
	Error  struct {
		Message string `json:"message"`
		Code    string `json:"code,omitempty"`
	} `json:"error"`
	Detail any `json:"detail,omitempty"`
}

// Rule maps one error class onto an HTTP answer. Code is a stable machine
// readable identifier for clients that branch on it.
type Rule struct {
	Target  error
	Status  int
	Code    string
	Message string
}

// preserves original error for future monitoring
func AbortWithError(c *gin.Context, status int, err error, msg string, detail any) {
	abort(c, status, err, msg, "", detail)
}

// AbortWithRules answers with the first rule whose target matches err, or 500.
func AbortWithRules(c *gin.Context, err error, rules []Rule, fallback string) {
	for _, r := range rules {
		if errs.Is(err, r.Target) {
			abort(c, r.Status, err, r.Message, r.Code, nil)
			return
		}
	}
	abort(c, http.StatusInternalServerError, err, fallback, "", nil)
}

func abort(c *gin.Context, status int, err error, msg, code string, detail any) {
	if err == nil {
		panic("AbortWithError: err cannot be nil")
	}

	resp := Response{Status: status}
	resp.Error.Message = msg
	resp.Error.Code = code
	resp.Detail = detail

	_ = c.Error(gin.Error{
		Err:  err,
		Type: gin.ErrorTypePublic,
		Meta: resp,
	})
	c.AbortWithStatusJSON(status, resp)
}
