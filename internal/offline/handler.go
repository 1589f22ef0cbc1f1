package offline

import (
	"net/http"
	"strconv"

	"go.uber.org/zap"
)

// ServeHTTP lets the controller sit in front of the shell as a plain handler.
func (c *Controller) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	resp := c.Fetch(r.Context(), r)

	for k, vv := range resp.Header {
		for _, v := range vv {
			w.Header().Add(k, v)
		}
	}
	w.Header().Set("Content-Length", strconv.Itoa(len(resp.Body)))
	w.WriteHeader(resp.Status)

	if r.Method == http.MethodHead {
		return
	}
	if _, err := w.Write(resp.Body); err != nil {
		c.logger.Debug("write response failed", zap.Error(err))
	}
}
