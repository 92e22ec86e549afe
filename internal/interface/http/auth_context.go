package http

import (
	"github.com/gin-gonic/gin"
)

const (
	clientKey       = "api_client"
	anonymousClient = "anonymous"
)

func setClient(c *gin.Context, client string) {
	c.Set(clientKey, client)
}

func getClient(c *gin.Context) string {
	value, ok := c.Get(clientKey)
	if !ok {
		return anonymousClient
	}
	client, _ := value.(string)
	if client == "" {
		return anonymousClient
	}
	return client
}
