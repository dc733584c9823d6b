package handlers

import (
	"net/http"
	"strings"

	"github.com/twilio/twilio-go/twiml"
)

const replyUnavailable = "Sorry, picks are unavailable right now. Try again in a few minutes."

// Webhook answers an inbound WhatsApp or SMS message from Twilio. The sender
// always gets a text reply, even when the query cannot be answered.
// @Summary Inbound Message Webhook
// @Description Twilio WhatsApp/SMS webhook; replies with TwiML
// @Tags Messaging
// @Accept x-www-form-urlencoded
// @Produce xml
// @Param Body formData string true "Message text"
// @Success 200 {string} string "TwiML Response"
// @Failure 403 {object} map[string]string "Invalid Signature"
// @Router /whatsapp [post]
// @Router /sms [post]
func (h *Handler) Webhook(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, MaxBodySize)
	if err := r.ParseForm(); err != nil {
		h.logger.Warnw("Unreadable webhook body", "error", err)
		h.errorResponse(w, http.StatusBadRequest, "Invalid form body")
		return
	}

	if h.twilio != nil && !h.validSignature(r) {
		h.logger.Warnw("Rejected webhook with bad signature", "remote", r.RemoteAddr, "path", r.URL.Path)
		h.errorResponse(w, http.StatusForbidden, "Invalid signature")
		return
	}

	body := strings.TrimSpace(r.PostForm.Get("Body"))
	h.logger.Infow("Inbound message", "channel", strings.TrimPrefix(r.URL.Path, "/"), "body", body)

	reply := replyUnavailable
	ans, err := h.picks.Answer(r.Context(), body)
	if err != nil {
		h.logger.Errorw("Failed to answer message", "body", body, "error", err)
	} else {
		reply = ans.Reply
	}

	h.twimlResponse(w, reply)
}

func (h *Handler) twimlResponse(w http.ResponseWriter, text string) {
	doc, err := twiml.Messages([]twiml.Element{&twiml.MessagingMessage{Body: text}})
	if err != nil {
		h.logger.Errorw("Failed to render TwiML", "error", err)
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Write([]byte(text))
		return
	}
	w.Header().Set("Content-Type", "application/xml")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(doc))
}

// validSignature checks X-Twilio-Signature against the URL Twilio called and
// the posted form.
func (h *Handler) validSignature(r *http.Request) bool {
	sig := r.Header.Get("X-Twilio-Signature")
	if sig == "" {
		return false
	}
	params := make(map[string]string, len(r.PostForm))
	for k, v := range r.PostForm {
		if len(v) > 0 {
			params[k] = v[0]
		}
	}
	return h.twilio.Validate(h.publicURL(r), params, sig)
}

func (h *Handler) publicURL(r *http.Request) string {
	if h.webhookURL != "" {
		return strings.TrimRight(h.webhookURL, "/") + r.URL.RequestURI()
	}
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if p := r.Header.Get("X-Forwarded-Proto"); p != "" {
		scheme = p
	}
	return scheme + "://" + r.Host + r.URL.RequestURI()
}
