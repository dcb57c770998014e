package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"loopsleuth/internal/logging"
	"loopsleuth/internal/review"
	"loopsleuth/internal/scanner"
)

func (s *Server) handleProgress(c *gin.Context) {
	c.JSON(http.StatusOK, FromProgress(s.scans.Progress()))
}

func (s *Server) handleStartScan(c *gin.Context) {
	var req ScanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}
	done, err := s.scans.IngestAsync(s.baseCtx, scanner.Request{
		Root:        req.Folder,
		Extensions:  req.Extensions,
		ForceRescan: req.ForceRescan,
	})
	if errors.Is(err, scanner.ErrLockConflict) {
		c.JSON(http.StatusConflict, ErrorResponse{Error: err.Error()})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
		return
	}
	go func() {
		result := <-done
		if result.Err != nil {
			s.logger.Warn("background scan failed",
				logging.Int64(logging.FieldScanID, result.ScanID),
				logging.Error(result.Err),
			)
		}
	}()
	c.JSON(http.StatusAccepted, ScanResponse{Started: true, Folder: req.Folder})
}

func (s *Server) handleClips(c *gin.Context) {
	clips, err := s.catalog.ListClips(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, ClipListResponse{Clips: FromClips(clips)})
}

func (s *Server) handleDuplicates(c *gin.Context) {
	groups, err := s.catalog.DuplicateGroups(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, DuplicateListResponse{Groups: FromDuplicateGroups(groups)})
}

func (s *Server) handleResolve(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid clip id"})
		return
	}
	var req ResolveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}
	action, err := review.ParseAction(req.Action)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}
	state, err := s.resolver.Resolve(c.Request.Context(), id, action, req.CanonicalID)
	switch {
	case errors.Is(err, review.ErrInvalidTarget):
		c.JSON(http.StatusUnprocessableEntity, ErrorResponse{Error: err.Error()})
		return
	case err != nil:
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, ResolveResponse{ID: id, State: string(state)})
}
