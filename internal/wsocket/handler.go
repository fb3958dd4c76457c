package wsocket

import (
	"context"
	"net/http"
	"sync"

	apperrors "ajatus_server/internal/errors"
	"ajatus_server/internal/models"
	"ajatus_server/internal/services"
	"ajatus_server/internal/utils/broker"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

const (
	TypeMessage   = "message"
	TypeSubscribe = "subscribe"
	TypeAssistant = "assistant"
	TypeEvent     = "event"
	TypeError     = "error"

	EndOfReply = "[END]"
)

type ChatStreamer interface {
	ChatStream(ctx context.Context, userID string, req services.ChatRequest, onChunk func(string) error) (*services.ChatResponse, error)
}

type ConversationFinder interface {
	GetConversation(ctx context.Context, userID, conversationID string) (*models.Conversation, error)
}

type Subscriber interface {
	Subscribe(topic string) <-chan broker.Event
	Unsubscribe(topic string, ch <-chan broker.Event)
}

type Handler struct {
	chat          ChatStreamer
	conversations ConversationFinder
	events        Subscriber
	upgrader      websocket.Upgrader
}

type Message struct {
	Type           string      `json:"type"`
	Content        string      `json:"content,omitempty"`
	ConversationID string      `json:"conversationId,omitempty"`
	Payload        interface{} `json:"payload,omitempty"`
}

func NewHandler(chat ChatStreamer, conversations ConversationFinder, events Subscriber, upgrader websocket.Upgrader) *Handler {
	return &Handler{
		chat:          chat,
		conversations: conversations,
		events:        events,
		upgrader:      upgrader,
	}
}

// session serializes writes from the read loop and the subscription forwarders.
type session struct {
	conn   *websocket.Conn
	userID string
	mu     sync.Mutex
	subs   map[string]<-chan broker.Event
}

func (s *session) send(msg Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn.WriteJSON(msg)
}

func (h *Handler) HandleWebSocket(w http.ResponseWriter, r *http.Request, userID string) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Debug().Err(err).Msg("Websocket upgrade failed")
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	s := &session{conn: conn, userID: userID, subs: make(map[string]<-chan broker.Event)}
	defer h.unsubscribeAll(s)

	log.Debug().Str("userID", userID).Msg("Websocket connected")
	for {
		var msg Message
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Debug().Err(err).Str("userID", userID).Msg("Websocket read failed")
			}
			return
		}

		var sendErr error
		switch msg.Type {
		case TypeMessage:
			sendErr = h.handleChatMessage(ctx, s, msg)
		case TypeSubscribe:
			sendErr = h.handleSubscribe(ctx, s, msg)
		default:
			sendErr = s.send(Message{Type: TypeError, Content: "Unknown message type: " + msg.Type})
		}
		if sendErr != nil {
			log.Debug().Err(sendErr).Str("userID", userID).Msg("Websocket write failed")
			return
		}
	}
}

func (h *Handler) handleChatMessage(ctx context.Context, s *session, msg Message) error {
	req := services.ChatRequest{
		Message:        msg.Content,
		ConversationID: msg.ConversationID,
	}
	if err := req.Validate(); err != nil {
		return s.send(Message{Type: TypeError, Content: errorMessage(err), ConversationID: msg.ConversationID})
	}

	resp, err := h.chat.ChatStream(ctx, s.userID, req, func(chunk string) error {
		return s.send(Message{Type: TypeAssistant, Content: chunk, ConversationID: msg.ConversationID})
	})
	if err != nil {
		return s.send(Message{Type: TypeError, Content: errorMessage(err), ConversationID: msg.ConversationID})
	}

	return s.send(Message{Type: TypeAssistant, Content: EndOfReply, ConversationID: resp.ConversationID})
}

func (h *Handler) handleSubscribe(ctx context.Context, s *session, msg Message) error {
	if msg.ConversationID == "" {
		return s.send(Message{Type: TypeError, Content: "conversationId is required"})
	}
	if _, err := h.conversations.GetConversation(ctx, s.userID, msg.ConversationID); err != nil {
		return s.send(Message{Type: TypeError, Content: errorMessage(err), ConversationID: msg.ConversationID})
	}

	topic := services.ConversationTopic(msg.ConversationID)
	if _, ok := s.subs[topic]; !ok {
		ch := h.events.Subscribe(topic)
		s.subs[topic] = ch
		go h.forward(s, msg.ConversationID, ch)
	}
	return s.send(Message{Type: TypeSubscribe, Content: "subscribed", ConversationID: msg.ConversationID})
}

// forward relays broker events until the channel is closed by Unsubscribe.
func (h *Handler) forward(s *session, conversationID string, ch <-chan broker.Event) {
	for ev := range ch {
		if err := s.send(Message{Type: TypeEvent, Content: ev.Type, ConversationID: conversationID, Payload: ev.Payload}); err != nil {
			log.Debug().Err(err).Str("conversationID", conversationID).Msg("Failed to forward event")
		}
	}
}

func (h *Handler) unsubscribeAll(s *session) {
	for topic, ch := range s.subs {
		h.events.Unsubscribe(topic, ch)
	}
}

func errorMessage(err error) string {
	if ce, ok := apperrors.As(err); ok {
		return ce.Message
	}
	return err.Error()
}
