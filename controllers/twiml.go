package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/twilio/twilio-go/twiml"
)

const twimlContentType = "text/xml; charset=utf-8"

const (
	genericFailure = "⚠️ Something went wrong on our side. Please try again in a moment."
	slowDown       = "⏳ You're sending messages too quickly. Please wait a minute and try again."
)

// RenderTwiML answers a webhook with one TwiML message per reply. The status
// is always 200 so the messaging provider never retries a handled message.
func RenderTwiML(c *gin.Context, replies ...string) {
	body, err := twiml.Messages(messageVerbs(replies))
	if err != nil {
		_ = c.Error(err)
		body, _ = twiml.Messages(messageVerbs([]string{genericFailure}))
	}
	c.Data(http.StatusOK, twimlContentType, []byte(body))
}

func messageVerbs(replies []string) []twiml.Element {
	verbs := make([]twiml.Element, 0, len(replies))
	for _, reply := range replies {
		verbs = append(verbs, &twiml.MessagingMessage{Body: reply})
	}
	return verbs
}

// SlowDown is the reply given to rate limited senders.
func SlowDown(c *gin.Context) {
	RenderTwiML(c, slowDown)
}

// TwiMLRecovery turns a panic in a webhook handler into the generic reply.
func TwiMLRecovery(log logrus.FieldLogger) gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		log.WithFields(logrus.Fields{
			"sender": c.PostForm("From"),
			"panic":  recovered,
		}).Error("webhook handler panicked")
		RenderTwiML(c, genericFailure)
		c.Abort()
	})
}
