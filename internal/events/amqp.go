package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/DoyleJ11/pokeguess-backend/internal/engine"
	"github.com/streadway/amqp"
)

// Publisher sends one message body to an exchange.
type Publisher interface {
	Publish(exchange string, body []byte) error
}

type AMQPPublisher struct {
	mu       sync.Mutex
	conn     *amqp.Connection
	channel  *amqp.Channel
	declared map[string]bool
}

// NewAMQPPublisher connects to RabbitMQ.
func NewAMQPPublisher(amqpURL string) (*AMQPPublisher, error) {
	conn, err := amqp.Dial(amqpURL)
	if err != nil {
		return nil, fmt.Errorf("dial amqp: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open amqp channel: %w", err)
	}
	return &AMQPPublisher{conn: conn, channel: ch, declared: make(map[string]bool)}, nil
}

// Publish sends body to a durable fanout exchange, declaring it on first use.
func (p *AMQPPublisher) Publish(exchange string, body []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.declared[exchange] {
		err := p.channel.ExchangeDeclare(
			exchange,
			"fanout",
			true,
			false,
			false,
			false,
			nil,
		)
		if err != nil {
			return fmt.Errorf("declare exchange %s: %w", exchange, err)
		}
		p.declared[exchange] = true
	}
	return p.channel.Publish(
		exchange,
		"",
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now(),
			Body:         body,
		},
	)
}

func (p *AMQPPublisher) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.channel != nil {
		p.channel.Close()
	}
	if p.conn != nil {
		p.conn.Close()
	}
}

// Message is the broker payload for one engine event.
type Message struct {
	Type          engine.EventType `json:"type"`
	SessionID     string           `json:"session_id"`
	Version       int              `json:"version"`
	PlayerID      string           `json:"player_id,omitempty"`
	PokedexNumber int              `json:"pokedex_number,omitempty"`
	Points        int              `json:"points,omitempty"`
	Hint          engine.HintKind  `json:"hint,omitempty"`
	Scores        []PlayerScore    `json:"scores,omitempty"`
}

type PlayerScore struct {
	PlayerID string `json:"player_id"`
	Score    int    `json:"score"`
}

// FanoutNotifier forwards round outcomes and game completion to an exchange.
type FanoutNotifier struct {
	pub      Publisher
	exchange string
}

func NewFanoutNotifier(pub Publisher, exchange string) *FanoutNotifier {
	return &FanoutNotifier{pub: pub, exchange: exchange}
}

func (n *FanoutNotifier) Notify(_ context.Context, s engine.Session, events []engine.Event) error {
	for _, e := range events {
		switch e.Type {
		case engine.EvtRoundWon, engine.EvtRoundLost, engine.EvtRoundTimedOut,
			engine.EvtPlayerJoined, engine.EvtGameStarted, engine.EvtGameCompleted:
		default:
			continue
		}

		msg := Message{
			Type:          e.Type,
			SessionID:     s.ID,
			Version:       s.Version,
			PlayerID:      e.PlayerID,
			PokedexNumber: e.PokedexNumber,
			Points:        e.Points,
			Hint:          e.Hint,
		}
		if e.Type == engine.EvtGameCompleted {
			for _, p := range s.Players {
				if p.PlayerID != "" {
					msg.Scores = append(msg.Scores, PlayerScore{PlayerID: p.PlayerID, Score: p.Score})
				}
			}
		}

		body, err := json.Marshal(msg)
		if err != nil {
			return fmt.Errorf("encode %s: %w", e.Type, err)
		}
		if err := n.pub.Publish(n.exchange, body); err != nil {
			return fmt.Errorf("publish %s: %w", e.Type, err)
		}
	}
	return nil
}
