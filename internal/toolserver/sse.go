package toolserver

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/googlegenomics/vcfserve/internal/session"
)

// Router builds the HTTP+SSE transport selected by --sse. Every tool is
// reachable as POST /tools/:name with a JSON body of parameters; region
// streaming additionally has a GET /tools/stream convenience endpoint that
// drives start_region_query/get_next_variant to completion server-side and
// pushes each variant as an SSE event.
func (s *Server) Router() *gin.Engine {
	router := gin.Default()

	router.POST("/tools/:name", func(c *gin.Context) {
		body, err := c.GetRawData()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		result, toolErr := s.Dispatch(c.Param("name"), json.RawMessage(body))
		if toolErr != nil {
			c.JSON(statusFor(toolErr), gin.H{"error": toolErr})
			return
		}
		c.JSON(http.StatusOK, gin.H{"result": result})
	})

	router.GET("/tools/stream", s.handleStream)

	return router
}

func (s *Server) handleStream(c *gin.Context) {
	chrom := c.Query("chrom")
	start, err1 := strconv.ParseUint(c.Query("start"), 10, 64)
	end, err2 := strconv.ParseUint(c.Query("end"), 10, 64)
	if chrom == "" || err1 != nil || err2 != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "chrom, start, and end are required"})
		return
	}
	filter := c.Query("filter")

	first, err := s.sessions.StartStream(s.store, chrom, start, end, filter)
	if notFound, ok := asChromosomeNotFound(err); ok {
		c.SSEvent("not_found", notFound)
		return
	}
	if err != nil {
		c.SSEvent("error", preconditionError(err))
		return
	}
	if first.Variant == nil {
		c.SSEvent("done", gin.H{"matched_chrom": first.MatchedChrom})
		return
	}

	c.SSEvent("variant", first.Variant)
	c.Writer.Flush()

	key := first.SessionKey
	for {
		next, err := s.sessions.Next(key)
		if err != nil {
			c.SSEvent("error", sessionErrorPayload(err))
			return
		}
		if next.Variant == nil {
			c.SSEvent("done", gin.H{"matched_chrom": first.MatchedChrom})
			return
		}
		c.SSEvent("variant", next.Variant)
		c.Writer.Flush()
		key = next.SessionKey
	}
}

func sessionErrorPayload(err error) *ToolError {
	if err == session.ErrUnknownSession {
		return sessionError(err)
	}
	return faultError(err)
}

func statusFor(err *ToolError) int {
	switch err.Kind {
	case "precondition":
		return http.StatusBadRequest
	case "session":
		return http.StatusGone
	default:
		return http.StatusInternalServerError
	}
}
