package controllers

import (
	"context"
	"fmt"
	"strconv"

	"lostfound-bot/dialog"
	"lostfound-bot/media"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// maxMedia is the most attachments a WhatsApp message can carry.
const maxMedia = 10

// Responder answers one inbound message.
type Responder interface {
	Handle(ctx context.Context, in dialog.Inbound) []string
}

type WebhookController struct {
	bot Responder
	log logrus.FieldLogger
}

func NewWebhookController(bot Responder, log logrus.FieldLogger) *WebhookController {
	return &WebhookController{bot: bot, log: log}
}

// HandleWhatsApp reads a Twilio messaging webhook and replies with TwiML.
func (w *WebhookController) HandleWhatsApp(c *gin.Context) {
	in := dialog.Inbound{
		Sender: c.PostForm("From"),
		Body:   c.PostForm("Body"),
		Media:  attachments(c),
	}
	if in.Sender == "" {
		w.log.Warn("webhook call without sender")
		RenderTwiML(c)
		return
	}

	RenderTwiML(c, w.bot.Handle(c.Request.Context(), in)...)
}

func attachments(c *gin.Context) []media.Attachment {
	n, err := strconv.Atoi(c.PostForm("NumMedia"))
	if err != nil || n <= 0 {
		return nil
	}
	if n > maxMedia {
		n = maxMedia
	}

	var out []media.Attachment
	for i := 0; i < n; i++ {
		url := c.PostForm(fmt.Sprintf("MediaUrl%d", i))
		if url == "" {
			continue
		}
		out = append(out, media.Attachment{
			URL:         url,
			ContentType: c.PostForm(fmt.Sprintf("MediaContentType%d", i)),
		})
	}
	return out
}
