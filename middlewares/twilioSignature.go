package middlewares

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/twilio/twilio-go/client"
)

// TwilioSignatureHeader carries the HMAC Twilio computes over a webhook post.
const TwilioSignatureHeader = "X-Twilio-Signature"

// TwilioSignature rejects webhook posts that were not signed with authToken.
// baseURL is the public scheme and host Twilio calls; when empty it is
// rebuilt from the request and its forwarding headers.
func TwilioSignature(authToken, baseURL string, log logrus.FieldLogger) gin.HandlerFunc {
	validator := client.NewRequestValidator(authToken)

	return func(c *gin.Context) {
		signature := c.GetHeader(TwilioSignatureHeader)
		if signature == "" {
			log.WithField("path", c.Request.URL.Path).Warn("webhook post without signature")
			c.AbortWithStatus(http.StatusForbidden)
			return
		}

		if err := c.Request.ParseForm(); err != nil {
			log.WithError(err).Warn("unreadable webhook form")
			c.AbortWithStatus(http.StatusBadRequest)
			return
		}
		params := make(map[string]string, len(c.Request.PostForm))
		for key, values := range c.Request.PostForm {
			if len(values) > 0 {
				params[key] = values[0]
			}
		}

		webhookURL := publicURL(c, baseURL)
		if !validator.Validate(webhookURL, params, signature) {
			log.WithFields(logrus.Fields{
				"sender": params["From"],
				"url":    webhookURL,
			}).Warn("webhook signature rejected")
			c.AbortWithStatus(http.StatusForbidden)
			return
		}
		c.Next()
	}
}

func publicURL(c *gin.Context, baseURL string) string {
	if baseURL != "" {
		return strings.TrimRight(baseURL, "/") + c.Request.URL.RequestURI()
	}

	scheme := "http"
	if c.Request.TLS != nil {
		scheme = "https"
	}
	if proto := c.GetHeader("X-Forwarded-Proto"); proto != "" {
		scheme = proto
	}
	host := c.Request.Host
	if forwarded := c.GetHeader("X-Forwarded-Host"); forwarded != "" {
		host = forwarded
	}
	return scheme + "://" + host + c.Request.URL.RequestURI()
}
