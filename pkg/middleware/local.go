// Package middleware provides HTTP middleware for the viewer's local servers.
package middleware

import (
	"net"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// LocalOnly rejects requests that do not come from this device.
// The peer address must be a loopback address, and the Host header must name
// the loopback interface so a rebound DNS name cannot reach the server.
func LocalOnly(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		peer := hostOf(c.Request.RemoteAddr)
		if ip := net.ParseIP(peer); ip == nil || !ip.IsLoopback() {
			logger.Warn("Rejected non-local client", zap.String("remote_addr", c.Request.RemoteAddr))
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "local clients only"})
			return
		}

		if !isLoopbackHost(hostOf(c.Request.Host)) {
			logger.Warn("Rejected request for foreign host", zap.String("host", c.Request.Host))
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "local clients only"})
			return
		}

		c.Next()
	}
}

// hostOf extracts and lowercases the hostname, stripping port.
func hostOf(hostport string) string {
	if h, _, err := net.SplitHostPort(hostport); err == nil {
		return strings.ToLower(h)
	}
	return strings.ToLower(strings.Trim(hostport, "[]"))
}

func isLoopbackHost(host string) bool {
	if ip := net.ParseIP(host); ip != nil {
		return ip.IsLoopback()
	}
	return host == "localhost" ||
		host == "localhost.localdomain" ||
		strings.HasSuffix(host, ".localhost")
}
