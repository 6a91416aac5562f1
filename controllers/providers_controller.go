package controllers

import (
	"net/http"
	"regexp"
	"time"

	"github.com/gin-gonic/gin"

	gateways "github.com/solvetogather/solvetogather-go/gateways"
	models "github.com/solvetogather/solvetogather-go/models"
	utils "github.com/solvetogather/solvetogather-go/utils"
)

// Pakistani mobile numbers: 03XXXXXXXXX, 3XXXXXXXXX or +923XXXXXXXXX.
var rePKMobile = regexp.MustCompile(`^(\+92|0)?3[0-9]{9}$`)

// These endpoints stand in for the EasyPaisa and bank providers. They validate the
// request and settle immediately with a synthetic reference.

// ---------------- EASYPAISA ----------------
func EasyPaisaPayment() gin.HandlerFunc {
	return func(c *gin.Context) {
		var input struct {
			Amount      float64 `json:"amount"`
			PhoneNumber string  `json:"phoneNumber"`
		}
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gateways.ProviderResponse{Error: "invalid request body"})
			return
		}
		if input.Amount <= 0 {
			c.JSON(http.StatusBadRequest, gateways.ProviderResponse{Error: "amount must be greater than 0"})
			return
		}
		if !rePKMobile.MatchString(input.PhoneNumber) {
			c.JSON(http.StatusBadRequest, gateways.ProviderResponse{Error: "invalid EasyPaisa mobile number"})
			return
		}

		c.JSON(http.StatusOK, gateways.ProviderResponse{
			Success:       true,
			TransactionID: utils.NewReference("EP", time.Now()),
		})
	}
}

// ---------------- BANK ----------------
func BankPayment() gin.HandlerFunc {
	return func(c *gin.Context) {
		var input struct {
			Amount      float64             `json:"amount"`
			BankDetails *models.BankDetails `json:"bankDetails"`
		}
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gateways.ProviderResponse{Error: "invalid request body"})
			return
		}
		if input.Amount <= 0 {
			c.JSON(http.StatusBadRequest, gateways.ProviderResponse{Error: "amount must be greater than 0"})
			return
		}
		if input.BankDetails == nil || input.BankDetails.AccountNumber == "" {
			c.JSON(http.StatusBadRequest, gateways.ProviderResponse{Error: "bank details are required"})
			return
		}

		c.JSON(http.StatusOK, gateways.ProviderResponse{
			Success:       true,
			TransactionID: utils.NewReference("BT", time.Now()),
		})
	}
}
