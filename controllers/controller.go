package controllers

import "github.com/gin-gonic/gin"

// Envelope padrão da API: { success, message } e, no sucesso, data.

func RespondError(c *gin.Context, msg string, code int) {
	c.JSON(code, gin.H{"success": false, "message": msg})
}

func RespondSuccess(c *gin.Context, msg string, data any) {
	c.JSON(200, gin.H{"success": true, "message": msg, "data": data})
}

func RespondCreated(c *gin.Context, msg string, data any) {
	c.JSON(201, gin.H{"success": true, "message": msg, "data": data})
}
