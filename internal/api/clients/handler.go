package clients

import (
	"errors"
	"net/http"
	"strings"

	"freelancer-hub/database"
	"freelancer-hub/internal/app/http/respond"
	"freelancer-hub/internal/apperr"
	"freelancer-hub/internal/domain/clients"
	"freelancer-hub/internal/domain/contracts"
	"freelancer-hub/internal/domain/invoices"
	"freelancer-hub/internal/domain/portal"
	"freelancer-hub/internal/domain/projects"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

var (
	ErrClientNotFound = apperr.NotFound("Client not found")
	ErrClientInUse    = apperr.Conflict("Client has projects, invoices or contracts")
)

type clientInput struct {
	Name    string `json:"name" binding:"required,max=200"`
	Email   string `json:"email" binding:"omitempty,email"`
	Company string `json:"company" binding:"max=200"`
	Phone   string `json:"phone" binding:"max=50"`
	Address string `json:"address" binding:"max=500"`
	Notes   string `json:"notes" binding:"max=5000"`
}

func (in clientInput) apply(c *clients.Client) {
	c.Name = strings.TrimSpace(in.Name)
	c.Email = strings.ToLower(strings.TrimSpace(in.Email))
	c.Company = in.Company
	c.Phone = in.Phone
	c.Address = in.Address
	c.Notes = in.Notes
}

func findOwned(c *gin.Context) (clients.Client, bool) {
	id, ok := respond.ParamID(c, "id")
	if !ok {
		return clients.Client{}, false
	}
	client, err := clients.FindOwned(database.DB, c.GetUint("user_id"), id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		respond.Error(c, ErrClientNotFound)
		return client, false
	}
	if err != nil {
		respond.Error(c, err)
		return client, false
	}
	return client, true
}

func ListClients(c *gin.Context) {
	q := clients.Owned(database.DB, c.GetUint("user_id"))
	if s := strings.TrimSpace(c.Query("q")); s != "" {
		like := "%" + strings.ToLower(s) + "%"
		q = q.Where("LOWER(name) LIKE ? OR LOWER(email) LIKE ? OR LOWER(company) LIKE ?", like, like, like)
	}
	var out []clients.Client
	if err := q.Order("name ASC").Find(&out).Error; err != nil {
		respond.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func CreateClient(c *gin.Context) {
	var in clientInput
	if err := c.ShouldBindJSON(&in); err != nil {
		respond.BindError(c, err)
		return
	}
	client := clients.Client{UserID: c.GetUint("user_id")}
	in.apply(&client)
	if err := database.DB.Create(&client).Error; err != nil {
		respond.Error(c, err)
		return
	}
	c.JSON(http.StatusCreated, client)
}

func GetClient(c *gin.Context) {
	client, ok := findOwned(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, client)
}

func UpdateClient(c *gin.Context) {
	client, ok := findOwned(c)
	if !ok {
		return
	}
	var in clientInput
	if err := c.ShouldBindJSON(&in); err != nil {
		respond.BindError(c, err)
		return
	}
	in.apply(&client)
	if err := database.DB.Save(&client).Error; err != nil {
		respond.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, client)
}

// DeleteClient refuses while work or billing history references the client.
func DeleteClient(c *gin.Context) {
	client, ok := findOwned(c)
	if !ok {
		return
	}
	err := database.DB.Transaction(func(tx *gorm.DB) error {
		for _, model := range []interface{}{&projects.Project{}, &invoices.Invoice{}, &contracts.Contract{}} {
			var n int64
			if err := tx.Model(model).Where("client_id = ?", client.ID).Count(&n).Error; err != nil {
				return err
			}
			if n > 0 {
				return ErrClientInUse
			}
		}
		for _, model := range []interface{}{&portal.Message{}, &portal.Session{}, &portal.AccessToken{}} {
			if err := tx.Where("client_id = ?", client.ID).Delete(model).Error; err != nil {
				return err
			}
		}
		return tx.Delete(&client).Error
	})
	if err != nil {
		respond.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}
