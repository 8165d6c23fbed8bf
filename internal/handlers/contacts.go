package handlers

// 联系人端点：全部挂在 authRequired 之后，服务层以 user_id 限定作用域，
// 访问他人联系人与记录不存在一律表现为 404。

import (
	"errors"
	"time"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"contactbook/internal/services"
)

type contactRequest struct {
	FirstName   string    `json:"first_name" binding:"required,max=50"`
	LastName    string    `json:"last_name" binding:"required,max=50"`
	Email       string    `json:"email" binding:"required,email"`
	Phone       string    `json:"phone" binding:"required,e164"`
	Birthday    time.Time `json:"birthday" binding:"required"`
	Description string    `json:"description" binding:"max=150"`
	Favorites   bool      `json:"favorites"`
}

func (r contactRequest) input() services.ContactInput {
	return services.ContactInput{
		FirstName:   r.FirstName,
		LastName:    r.LastName,
		Email:       r.Email,
		Phone:       r.Phone,
		Birthday:    r.Birthday,
		Description: r.Description,
		Favorites:   r.Favorites,
	}
}

func (h *Handler) listContacts(c *gin.Context) {
	u := currentUser(c)
	f := services.ContactFilter{
		FirstName: c.Query("first_name"),
		LastName:  c.Query("last_name"),
		Email:     c.Query("email"),
		Limit:     queryInt(c, "limit", 10),
		Offset:    queryInt(c, "offset", 0),
	}
	contacts, err := h.contactSvc.List(c, u.ID, f)
	if err != nil {
		log.WithError(err).Error("list contacts")
		c.JSON(500, gin.H{"error": "internal_error"})
		return
	}
	c.JSON(200, contacts)
}

func (h *Handler) upcomingBirthdays(c *gin.Context) {
	u := currentUser(c)
	contacts, err := h.contactSvc.UpcomingBirthdays(c, u.ID, queryInt(c, "limit", 10), queryInt(c, "offset", 0))
	if err != nil {
		log.WithError(err).Error("upcoming birthdays")
		c.JSON(500, gin.H{"error": "internal_error"})
		return
	}
	c.JSON(200, contacts)
}

func (h *Handler) getContact(c *gin.Context) {
	u := currentUser(c)
	id, ok := pathID(c)
	if !ok {
		c.JSON(404, gin.H{"error": "not_found"})
		return
	}
	contact, err := h.contactSvc.GetByID(c, u.ID, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(404, gin.H{"error": "not_found"})
			return
		}
		c.JSON(500, gin.H{"error": "internal_error"})
		return
	}
	c.JSON(200, contact)
}

func (h *Handler) createContact(c *gin.Context) {
	u := currentUser(c)
	var req contactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(422, gin.H{"error": "validation_failed", "detail": err.Error()})
		return
	}
	contact, err := h.contactSvc.Create(c, u.ID, req.input())
	if err != nil {
		log.WithError(err).Error("create contact")
		c.JSON(500, gin.H{"error": "internal_error"})
		return
	}
	c.JSON(201, contact)
}

func (h *Handler) updateContact(c *gin.Context) {
	u := currentUser(c)
	id, ok := pathID(c)
	if !ok {
		c.JSON(404, gin.H{"error": "not_found"})
		return
	}
	var req contactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(422, gin.H{"error": "validation_failed", "detail": err.Error()})
		return
	}
	contact, err := h.contactSvc.Update(c, u.ID, id, req.input())
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(404, gin.H{"error": "not_found"})
			return
		}
		c.JSON(500, gin.H{"error": "internal_error"})
		return
	}
	c.JSON(200, contact)
}

func (h *Handler) deleteContact(c *gin.Context) {
	u := currentUser(c)
	id, ok := pathID(c)
	if !ok {
		c.JSON(404, gin.H{"error": "not_found"})
		return
	}
	if err := h.contactSvc.Delete(c, u.ID, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(404, gin.H{"error": "not_found"})
			return
		}
		c.JSON(500, gin.H{"error": "internal_error"})
		return
	}
	c.Status(204)
}
