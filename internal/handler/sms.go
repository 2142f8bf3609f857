package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/styledna/api/internal/client"
	"github.com/styledna/api/internal/service"
	"github.com/styledna/api/pkg/response"
)

// emptyTwiML acknowledges a webhook without an inline reply; the real
// answer goes out via the REST API once generation finishes.
const emptyTwiML = `<?xml version="1.0" encoding="UTF-8"?><Response></Response>`

type SMSHandler struct {
	service    *service.SMSService
	twilio     *client.TwilioClient
	webhookURL string
}

// NewSMSHandler creates the inbound webhook handler. webhookURL is the
// public URL Twilio posts to, needed to recompute the signature behind
// a proxy. An unconfigured client skips signature validation (dev).
func NewSMSHandler(svc *service.SMSService, twilio *client.TwilioClient, webhookURL string) *SMSHandler {
	return &SMSHandler{
		service:    svc,
		twilio:     twilio,
		webhookURL: webhookURL,
	}
}

// Webhook handles POST /sms/webhook
// @Summary      Inbound SMS webhook
// @Description  Receive a text from Twilio and reply with an outfit asynchronously
// @Tags         SMS
// @Accept       x-www-form-urlencoded
// @Produce      xml
// @Param        From body string true "Sender phone number"
// @Param        Body body string false "Message text"
// @Success      200 {string} string "Empty TwiML"
// @Failure      400 {object} response.ErrorResponse
// @Failure      403 {object} response.ErrorResponse
// @Failure      429 {object} response.ErrorResponse
// @Router       /sms/webhook [post]
func (h *SMSHandler) Webhook(c *fiber.Ctx) error {
	if h.twilio != nil && h.twilio.IsConfigured() && h.webhookURL != "" {
		params := make(map[string]string)
		c.Request().PostArgs().VisitAll(func(key, value []byte) {
			params[string(key)] = string(value)
		})

		signature := c.Get("X-Twilio-Signature")
		if !h.twilio.ValidateSignature(h.webhookURL, params, signature) {
			return response.Forbidden(c, "Invalid webhook signature")
		}
	}

	from := c.FormValue("From")
	if from == "" {
		return response.ValidationError(c, "From is required", nil)
	}
	body := c.FormValue("Body")

	// Kick off generation and answer Twilio before it times out.
	h.service.HandleInbound(from, body)

	c.Set(fiber.HeaderContentType, "text/xml")
	return c.SendString(emptyTwiML)
}
