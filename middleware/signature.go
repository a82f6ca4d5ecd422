package middleware

import (
	"bytes"
	"crypto/ed25519"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/bwmarrin/discordgo"

	"rolebot/appctx"
	"rolebot/core"
	"rolebot/core/log"
	"rolebot/metrics"
)

const (
	SignatureHeader = "X-Signature-Ed25519"
	TimestampHeader = "X-Signature-Timestamp"

	maxInteractionBodyBytes = 1 << 20
)

// VerifySignature checks an Ed25519 signature over timestamp || body. Malformed keys or
// signatures verify as false.
func VerifySignature(publicKeyHex, signatureHex, timestamp string, body []byte) bool {
	publicKey, err := hex.DecodeString(publicKeyHex)
	if err != nil || len(publicKey) != ed25519.PublicKeySize {
		return false
	}
	signature, err := hex.DecodeString(signatureHex)
	if err != nil || len(signature) != ed25519.SignatureSize {
		return false
	}

	message := make([]byte, 0, len(timestamp)+len(body))
	message = append(message, timestamp...)
	message = append(message, body...)
	return ed25519.Verify(ed25519.PublicKey(publicKey), message, signature)
}

var (
	errMissingSignature = fmt.Errorf("missing signature headers: %w", core.ErrUnauthorized)
	errInvalidSignature = fmt.Errorf("invalid request signature: %w", core.ErrUnauthorized)
	errNoPublicKey      = fmt.Errorf("interaction public key is not configured: %w", core.ErrConfiguration)
	errUnreadableBody   = fmt.Errorf("unreadable request body: %w", core.ErrBadRequest)
	errBodyTooLarge     = fmt.Errorf("request body too large: %w", core.ErrBadRequest)
	errMalformedPayload = fmt.Errorf("interaction payload is not valid JSON: %w", core.ErrBadRequest)
)

// InteractionSignatureMiddleware authenticates interaction webhooks and parses them
// only once the signature checks out
type InteractionSignatureMiddleware struct {
	publicKeyHex string
}

func NewInteractionSignatureMiddleware(publicKeyHex string) *InteractionSignatureMiddleware {
	return &InteractionSignatureMiddleware{publicKeyHex: publicKeyHex}
}

// WithSignature wraps an HTTP handler with interaction signature verification
func (m *InteractionSignatureMiddleware) WithSignature(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		interaction, err := m.authenticate(r)
		if err != nil {
			m.reject(w, r, err)
			return
		}

		ctx := appctx.SetInteraction(r.Context(), interaction)
		next(w, r.WithContext(ctx))
	}
}

// authenticate verifies the raw body against the signature headers and only then parses it
func (m *InteractionSignatureMiddleware) authenticate(r *http.Request) (*discordgo.Interaction, error) {
	signature := r.Header.Get(SignatureHeader)
	timestamp := r.Header.Get(TimestampHeader)
	if signature == "" || timestamp == "" {
		return nil, errMissingSignature
	}

	if m.publicKeyHex == "" {
		return nil, errNoPublicKey
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxInteractionBodyBytes+1))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errUnreadableBody, err)
	}
	if len(body) > maxInteractionBodyBytes {
		return nil, errBodyTooLarge
	}

	if !VerifySignature(m.publicKeyHex, signature, timestamp, body) {
		return nil, errInvalidSignature
	}

	var interaction discordgo.Interaction
	if err := json.Unmarshal(body, &interaction); err != nil {
		return nil, fmt.Errorf("%w: %w", errMalformedPayload, err)
	}

	r.Body = io.NopCloser(bytes.NewReader(body))
	return &interaction, nil
}

// rejection maps an authentication failure to its status, metric reason and public message.
// A missing public key answers like a bad signature.
func rejection(err error) (statusCode int, reason, message string) {
	switch {
	case errors.Is(err, errMissingSignature):
		return http.StatusUnauthorized, "missing_headers", "missing signature"
	case errors.Is(err, errNoPublicKey):
		return http.StatusUnauthorized, "no_public_key", "invalid request signature"
	case errors.Is(err, errInvalidSignature):
		return http.StatusUnauthorized, "invalid_signature", "invalid request signature"
	case errors.Is(err, errBodyTooLarge):
		return http.StatusRequestEntityTooLarge, "body_too_large", "request body too large"
	case errors.Is(err, errUnreadableBody):
		return http.StatusBadRequest, "unreadable_body", "invalid request body"
	case errors.Is(err, errMalformedPayload):
		return http.StatusBadRequest, "malformed_payload", "invalid interaction payload"
	default:
		return http.StatusUnauthorized, "unknown", "invalid request signature"
	}
}

func (m *InteractionSignatureMiddleware) reject(w http.ResponseWriter, r *http.Request, err error) {
	statusCode, reason, message := rejection(err)

	class := core.Classify(err)
	if class == core.ErrorClassConfiguration {
		log.Error("❌ Rejected interaction request from %s (%s): %v", r.RemoteAddr, class, err)
	} else {
		log.Warn("⚠️ Rejected interaction request from %s (%s): %v", r.RemoteAddr, class, err)
	}

	metrics.SignatureFailures.WithLabelValues(reason).Inc()
	writeJSONError(w, message, statusCode)
}

// writeJSONError writes a standardized error response
func writeJSONError(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	errorResponse := map[string]string{"error": message}
	if err := json.NewEncoder(w).Encode(errorResponse); err != nil {
		log.Error("❌ Failed to encode error response: %v", err)
	}
}
