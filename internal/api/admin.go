package api

import (
	"net/http"
	"strconv"

	"opulanz-onboarding/internal/admin"
	"opulanz-onboarding/internal/common/logger"

	"github.com/gin-gonic/gin"
)

// AdminCodeHeader carries the back office code on every admin request.
const AdminCodeHeader = "X-Admin-Code"

type adminHandler struct {
	svc *admin.Service
	log logger.Logger
}

func registerAdmin(g *gin.RouterGroup, h *adminHandler) {
	g.POST("/login", h.login)
	g.POST("/customers/login", h.customerLogin)

	secured := g.Group("", h.requireAdmin)
	secured.GET("/stats", h.stats)
	secured.GET("/activity", h.activity)
	secured.POST("/access-codes", h.accessCode)
	secured.GET("/admins", h.listAdmins)
	secured.POST("/admins", h.saveAdmin)

	secured.GET("/customers", h.listCustomers)
	secured.POST("/customers", h.createCustomer)
	secured.GET("/customers/:id", h.getCustomer)
	secured.PATCH("/customers/:id", h.updateCustomer)
	secured.DELETE("/customers/:id", h.deleteCustomer)
	secured.GET("/customers/:id/documents", h.listDocuments(admin.OwnerCustomer))
	secured.POST("/customers/:id/documents", h.addDocument(admin.OwnerCustomer))
	secured.DELETE("/customers/:id/documents/:doc", h.removeDocument(admin.OwnerCustomer))

	secured.GET("/offerings", h.listOfferings)
	secured.POST("/offerings", h.createOffering)
	secured.GET("/offerings/:id", h.getOffering)
	secured.PATCH("/offerings/:id", h.updateOffering)
	secured.DELETE("/offerings/:id", h.deleteOffering)
	secured.GET("/offerings/:id/documents", h.listDocuments(admin.OwnerOffering))
	secured.POST("/offerings/:id/documents", h.addDocument(admin.OwnerOffering))
	secured.DELETE("/offerings/:id/documents/:doc", h.removeDocument(admin.OwnerOffering))
}

func (h *adminHandler) requireAdmin(c *gin.Context) {
	if !h.svc.ValidateAdminCode(c.GetHeader(AdminCodeHeader)) {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "error": "Invalid admin code"})
		return
	}
	c.Next()
}

type codeRequest struct {
	Code string `json:"code" binding:"required"`
}

func (h *adminHandler) login(c *gin.Context) {
	var req codeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "code is required")
		return
	}
	if !h.svc.ValidateAdminCode(req.Code) {
		h.log.Warn("admin login refused", map[string]interface{}{"client_ip": c.ClientIP()})
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "error": "Invalid admin code"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *adminHandler) customerLogin(c *gin.Context) {
	var req codeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "code is required")
		return
	}
	customer, err := h.svc.Login(c.Request.Context(), req.Code)
	if err != nil {
		respondError(c, err)
		return
	}
	offerings, err := h.svc.ListOfferings(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "customer": customer, "offerings": offerings})
}

func (h *adminHandler) stats(c *gin.Context) {
	st, err := h.svc.Stats(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "stats": st})
}

func (h *adminHandler) activity(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "0"))
	entries, err := h.svc.Activity(c.Request.Context(), limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "activity": entries})
}

func (h *adminHandler) accessCode(c *gin.Context) {
	code, err := h.svc.GenerateAccessCode(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "accessCode": code})
}

func (h *adminHandler) listAdmins(c *gin.Context) {
	admins, err := h.svc.ListAdmins(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "admins": admins})
}

func (h *adminHandler) saveAdmin(c *gin.Context) {
	var in admin.Admin
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "invalid admin payload")
		return
	}
	saved, err := h.svc.SaveAdmin(c.Request.Context(), in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "admin": saved})
}

// =============================================================================
// Customers
// =============================================================================

func (h *adminHandler) listCustomers(c *gin.Context) {
	customers, err := h.svc.ListCustomers(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "customers": customers})
}

func (h *adminHandler) getCustomer(c *gin.Context) {
	customer, err := h.svc.GetCustomer(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "customer": customer})
}

func (h *adminHandler) createCustomer(c *gin.Context) {
	var in admin.Customer
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "invalid customer payload")
		return
	}
	customer, err := h.svc.CreateCustomer(c.Request.Context(), in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "customer": customer})
}

func (h *adminHandler) updateCustomer(c *gin.Context) {
	var patch admin.CustomerPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		badRequest(c, "invalid customer payload")
		return
	}
	customer, err := h.svc.UpdateCustomer(c.Request.Context(), c.Param("id"), patch)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "customer": customer})
}

func (h *adminHandler) deleteCustomer(c *gin.Context) {
	if err := h.svc.DeleteCustomer(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// =============================================================================
// Offerings
// =============================================================================

func (h *adminHandler) listOfferings(c *gin.Context) {
	offerings, err := h.svc.ListOfferings(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "offerings": offerings})
}

func (h *adminHandler) getOffering(c *gin.Context) {
	offering, err := h.svc.GetOffering(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "offering": offering})
}

func (h *adminHandler) createOffering(c *gin.Context) {
	var in admin.Offering
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "invalid offering payload")
		return
	}
	offering, err := h.svc.CreateOffering(c.Request.Context(), in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "offering": offering})
}

func (h *adminHandler) updateOffering(c *gin.Context) {
	var patch admin.OfferingPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		badRequest(c, "invalid offering payload")
		return
	}
	offering, err := h.svc.UpdateOffering(c.Request.Context(), c.Param("id"), patch)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "offering": offering})
}

func (h *adminHandler) deleteOffering(c *gin.Context) {
	if err := h.svc.DeleteOffering(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// =============================================================================
// Documents
// =============================================================================

func (h *adminHandler) listDocuments(ownerKind string) gin.HandlerFunc {
	return func(c *gin.Context) {
		docs, err := h.svc.ListDocuments(c.Request.Context(), ownerKind, c.Param("id"))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "documents": docs})
	}
}

func (h *adminHandler) addDocument(ownerKind string) gin.HandlerFunc {
	return func(c *gin.Context) {
		var in admin.Document
		if err := c.ShouldBindJSON(&in); err != nil {
			badRequest(c, "invalid document payload")
			return
		}
		doc, err := h.svc.AddDocument(c.Request.Context(), ownerKind, c.Param("id"), in)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{"success": true, "document": doc})
	}
}

func (h *adminHandler) removeDocument(ownerKind string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := h.svc.RemoveDocument(c.Request.Context(), ownerKind, c.Param("id"), c.Param("doc")); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true})
	}
}
