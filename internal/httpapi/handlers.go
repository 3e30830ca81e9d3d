package httpapi

import (
	"crypto/rand"
	"encoding/json"
	"math/big"
	"net/http"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5"
	qrcode "github.com/skip2/go-qrcode"
	"go.uber.org/zap"

	"github.com/buzzboard/buzzboard-backend/internal/engine"
	"github.com/buzzboard/buzzboard-backend/internal/hub"
	"github.com/buzzboard/buzzboard-backend/internal/session"
)

const qrSize = 256

func GenerateCode() (string, error) {
	const charset = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

	code := make([]byte, 6)
	for i := 0; i < 6; i++ {
		num, err := rand.Int(rand.Reader, big.NewInt(int64(len(charset))))
		if err != nil {
			return "", err
		}
		code[i] = charset[num.Int64()]
	}
	return string(code), nil
}

// CreateGame allocates a fresh game code and spawns its session seeded
// with the configured board.
func CreateGame(h *hub.Hub, board []engine.Category, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var code string
		for {
			c, err := GenerateCode()
			if err != nil {
				http.Error(w, "failed to generate code", http.StatusInternalServerError)
				return
			}
			reply := make(chan *session.Session, 1)
			h.Inbox() <- hub.GetSession{Code: c, Reply: reply}
			if <-reply == nil {
				code = c
				break
			}
			log.Info("collision on game code, regenerating", zap.String("game_code", c))
		}

		reply := make(chan *session.Session, 1)
		h.Inbox() <- hub.EnsureSession{Code: code, State: engine.NewState(code, board), Reply: reply}
		if <-reply == nil {
			http.Error(w, "failed to create game", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(struct {
			Code string `json:"code"`
		}{Code: code})
	}
}

// GetGame returns the current snapshot for a code. Handy for debugging and
// for screens that want state before the socket is up.
func GetGame(h *hub.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, ok := lookup(h, chi.URLParam(r, "code"))
		if !ok {
			http.Error(w, "game not found", http.StatusNotFound)
			return
		}

		reply := make(chan session.View, 1)
		sess.Inbox() <- session.GetView{Reply: reply}
		select {
		case view := <-reply:
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(struct {
				Version int          `json:"version"`
				State   engine.State `json:"state"`
			}{Version: view.Version, State: view.State})
		case <-time.After(2 * time.Second):
			http.Error(w, "session unavailable", http.StatusServiceUnavailable)
		}
	}
}

// JoinQR renders a QR code for the player join URL, for the shared screen
// to display.
func JoinQR(h *hub.Hub, publicURL string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		code := chi.URLParam(r, "code")
		if _, ok := lookup(h, code); !ok {
			http.Error(w, "game not found", http.StatusNotFound)
			return
		}

		join := publicURL + "/player?code=" + url.QueryEscape(code)
		png, err := qrcode.Encode(join, qrcode.Medium, qrSize)
		if err != nil {
			http.Error(w, "failed to render qr code", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(png)
	}
}

func Healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func lookup(h *hub.Hub, code string) (*session.Session, bool) {
	if code == "" {
		return nil, false
	}
	reply := make(chan *session.Session, 1)
	h.Inbox() <- hub.GetSession{Code: code, Reply: reply}
	sess := <-reply
	return sess, sess != nil
}
