package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/inframirror/inframirror/internal/models"
	"github.com/inframirror/inframirror/internal/repository"
)

// VMHandler handles inventory and candidate read/purge requests
type VMHandler struct {
	vcenterRepo   repository.VCenterVMRepository
	jiraRepo      repository.JiraVMRepository
	candidateRepo repository.CandidateRepository
}

// NewVMHandler creates a new VM handler
func NewVMHandler(
	vcenterRepo repository.VCenterVMRepository,
	jiraRepo repository.JiraVMRepository,
	candidateRepo repository.CandidateRepository,
) *VMHandler {
	return &VMHandler{
		vcenterRepo:   vcenterRepo,
		jiraRepo:      jiraRepo,
		candidateRepo: candidateRepo,
	}
}

// ListVCenterVMs handles listing collected vCenter VMs with paging
func (h *VMHandler) ListVCenterVMs(c *gin.Context) {
	skip, limit := pagingParams(c)

	vms, err := h.vcenterRepo.GetAll(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"message": "Failed to retrieve vCenter VMs",
		})
		return
	}

	total := len(vms)
	vms = pageVCenterVMs(vms, skip, limit)

	c.JSON(http.StatusOK, models.VMListResponse{
		VMs:   vms,
		Total: total,
		Skip:  skip,
		Limit: limit,
	})
}

// GetVCenterVM handles fetching a single vCenter VM by its managed-object id
func (h *VMHandler) GetVCenterVM(c *gin.Context) {
	mobID := c.Param("mobid")

	vm, err := h.vcenterRepo.GetByMobID(c.Request.Context(), mobID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"message": "VM not found",
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"message": "Failed to retrieve VM",
		})
		return
	}

	c.JSON(http.StatusOK, vm)
}

// ListJiraVMs handles listing collected Jira VM assets with paging
func (h *VMHandler) ListJiraVMs(c *gin.Context) {
	skip, limit := pagingParams(c)

	vms, err := h.jiraRepo.GetAll(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"message": "Failed to retrieve Jira VMs",
		})
		return
	}

	total := len(vms)
	vms = pageJiraVMs(vms, skip, limit)

	c.JSON(http.StatusOK, models.JiraVMListResponse{
		VMs:   vms,
		Total: total,
		Skip:  skip,
		Limit: limit,
	})
}

// ListMissingVMs handles listing missing-VM candidates, optionally filtered
// by lifecycle status
func (h *VMHandler) ListMissingVMs(c *gin.Context) {
	skip, limit := pagingParams(c)
	status := c.Query("status")

	candidates, err := h.candidateRepo.ListByStatus(c.Request.Context(), status, skip, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"message": "Failed to retrieve missing VMs",
		})
		return
	}

	c.JSON(http.StatusOK, models.CandidateListResponse{
		Candidates: candidates,
		Total:      len(candidates),
		Skip:       skip,
		Limit:      limit,
	})
}

// ListCompleted handles listing completed candidates
func (h *VMHandler) ListCompleted(c *gin.Context) {
	h.listByStatus(c, models.StatusCompleted)
}

// ListFailed handles listing failed candidates
func (h *VMHandler) ListFailed(c *gin.Context) {
	h.listByStatus(c, models.StatusFailed)
}

func (h *VMHandler) listByStatus(c *gin.Context, status string) {
	skip, limit := pagingParams(c)

	candidates, err := h.candidateRepo.ListByStatus(c.Request.Context(), status, skip, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"message": "Failed to retrieve candidates",
		})
		return
	}

	c.JSON(http.StatusOK, models.CandidateListResponse{
		Candidates: candidates,
		Total:      len(candidates),
		Skip:       skip,
		Limit:      limit,
	})
}

// DeleteMissingVMs handles purging all missing-VM candidates
func (h *VMHandler) DeleteMissingVMs(c *gin.Context) {
	deleted, err := h.candidateRepo.DeleteAll(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"message": "Failed to delete missing VMs",
		})
		return
	}

	c.JSON(http.StatusOK, models.DeleteResponse{
		Deleted: deleted,
		Message: "All missing VM candidates deleted",
	})
}

// DeleteCompleted handles purging completed candidates
func (h *VMHandler) DeleteCompleted(c *gin.Context) {
	h.deleteByStatus(c, models.StatusCompleted, "Completed candidates deleted")
}

// DeleteFailed handles purging failed candidates
func (h *VMHandler) DeleteFailed(c *gin.Context) {
	h.deleteByStatus(c, models.StatusFailed, "Failed candidates deleted")
}

func (h *VMHandler) deleteByStatus(c *gin.Context, status, message string) {
	deleted, err := h.candidateRepo.DeleteByStatus(c.Request.Context(), status)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"message": "Failed to delete candidates",
		})
		return
	}

	c.JSON(http.StatusOK, models.DeleteResponse{
		Deleted: deleted,
		Message: message,
	})
}

// DeleteVCenterVMs handles purging the collected vCenter inventory
func (h *VMHandler) DeleteVCenterVMs(c *gin.Context) {
	deleted, err := h.vcenterRepo.DeleteAll(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"message": "Failed to delete vCenter VMs",
		})
		return
	}

	c.JSON(http.StatusOK, models.DeleteResponse{
		Deleted: deleted,
		Message: "All vCenter VM records deleted",
	})
}

// DeleteJiraVMs handles purging the collected Jira asset inventory
func (h *VMHandler) DeleteJiraVMs(c *gin.Context) {
	deleted, err := h.jiraRepo.DeleteAll(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"message": "Failed to delete Jira VMs",
		})
		return
	}

	c.JSON(http.StatusOK, models.DeleteResponse{
		Deleted: deleted,
		Message: "All Jira VM asset records deleted",
	})
}

// pagingParams extracts skip/limit query parameters with sane defaults
func pagingParams(c *gin.Context) (int, int) {
	skip, err := strconv.Atoi(c.DefaultQuery("skip", "0"))
	if err != nil || skip < 0 {
		skip = 0
	}

	limit, err := strconv.Atoi(c.DefaultQuery("limit", "100"))
	if err != nil || limit < 0 {
		limit = 100
	}

	return skip, limit
}

func pageVCenterVMs(vms []models.VCenterVM, skip, limit int) []models.VCenterVM {
	if skip >= len(vms) {
		return []models.VCenterVM{}
	}
	vms = vms[skip:]
	if limit > 0 && len(vms) > limit {
		vms = vms[:limit]
	}
	return vms
}

func pageJiraVMs(vms []models.JiraVM, skip, limit int) []models.JiraVM {
	if skip >= len(vms) {
		return []models.JiraVM{}
	}
	vms = vms[skip:]
	if limit > 0 && len(vms) > limit {
		vms = vms[:limit]
	}
	return vms
}
