package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/vadiminshakov/alpacamint/internal/domain"
	"github.com/vadiminshakov/alpacamint/internal/entity"
)

const (
	gatewayTimeout   = 30 * time.Second
	jsonRPCVersion   = "2.0"
	MethodSecretsSet = "secrets_set"
)

// SecretsSetPayload is the owner-signed storage request carried by a gateway message.
type SecretsSetPayload struct {
	SlotID     uint   `json:"slot_id"`
	Version    uint64 `json:"version"`
	Payload    string `json:"payload"`
	Expiration int64  `json:"expiration"`
	Signature  string `json:"signature"`
}

// MessageBody is the signed part of a gateway message.
type MessageBody struct {
	MessageID string            `json:"message_id"`
	Method    string            `json:"method"`
	DonID     string            `json:"don_id"`
	Receiver  string            `json:"receiver"`
	Payload   SecretsSetPayload `json:"payload"`
}

// NewMessageBody creates a body with a fresh message ID.
func NewMessageBody(method, donID string, payload SecretsSetPayload) MessageBody {
	return MessageBody{
		MessageID: uuid.New().String(),
		Method:    method,
		DonID:     donID,
		Payload:   payload,
	}
}

// GatewayMessage is a JSON-RPC request accepted by DON gateways.
type GatewayMessage struct {
	ID      string        `json:"id"`
	JSONRPC string        `json:"jsonrpc"`
	Method  string        `json:"method"`
	Params  MessageParams `json:"params"`
}

// MessageParams wraps the body together with the sender signature over it.
type MessageParams struct {
	Body      MessageBody `json:"body"`
	Signature string      `json:"signature"`
}

// NewGatewayMessage wraps a signed body into a JSON-RPC request.
func NewGatewayMessage(body MessageBody, signature string) GatewayMessage {
	return GatewayMessage{
		ID:      body.MessageID,
		JSONRPC: jsonRPCVersion,
		Method:  body.Method,
		Params:  MessageParams{Body: body, Signature: signature},
	}
}

type gatewayResponse struct {
	ID      string `json:"id"`
	JSONRPC string `json:"jsonrpc"`
	Result  *struct {
		Body struct {
			Payload struct {
				Success       bool           `json:"success"`
				NodeResponses []nodeResponse `json:"node_responses"`
			} `json:"payload"`
		} `json:"body"`
	} `json:"result"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

type nodeResponse struct {
	Body struct {
		Sender  string `json:"sender"`
		Payload struct {
			Success      bool   `json:"success"`
			ErrorMessage string `json:"error_message"`
		} `json:"payload"`
	} `json:"body"`
}

// GatewayResult is the answer of the first gateway that accepted a message.
type GatewayResult struct {
	URL           string
	NodeResponses []entity.NodeResponse
}

// GatewayClient delivers messages to DON gateways.
type GatewayClient struct {
	httpClient *http.Client
	logger     *zap.Logger
}

func NewGatewayClient(logger *zap.Logger) *GatewayClient {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GatewayClient{
		httpClient: &http.Client{Timeout: gatewayTimeout},
		logger:     logger,
	}
}

// Send posts msg to each gateway in order and returns the first valid answer.
// Every gateway gets exactly one attempt.
func (c *GatewayClient) Send(ctx context.Context, urls []string, msg GatewayMessage) (GatewayResult, error) {
	if len(urls) == 0 {
		return GatewayResult{}, errors.New("at least one gateway url is required")
	}

	payload, err := json.Marshal(msg)
	if err != nil {
		return GatewayResult{}, errors.Wrap(err, "failed to marshal gateway message")
	}

	failures := make([]string, 0, len(urls))
	for _, url := range urls {
		nodes, err := c.send(ctx, url, msg.ID, payload)
		if err != nil {
			c.logger.Warn("gateway rejected message", zap.String("gateway", url), zap.Error(err))
			failures = append(failures, fmt.Sprintf("%s: %v", url, err))
			if ctx.Err() != nil {
				break
			}
			continue
		}
		return GatewayResult{URL: url, NodeResponses: nodes}, nil
	}

	return GatewayResult{}, errors.Wrapf(domain.ErrNetworkFailure, "no gateway accepted the message: %s", strings.Join(failures, "; "))
}

func (c *GatewayClient) send(ctx context.Context, url, id string, payload []byte) ([]entity.NodeResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, errors.Wrap(err, "failed to create HTTP request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "HTTP request failed")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read response body")
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("gateway returned status %d: %s", resp.StatusCode, string(body))
	}

	var gwResp gatewayResponse
	if err := json.Unmarshal(body, &gwResp); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal response")
	}
	if gwResp.Error != nil {
		return nil, fmt.Errorf("gateway error %d: %s", gwResp.Error.Code, gwResp.Error.Message)
	}
	if gwResp.ID != id {
		return nil, fmt.Errorf("gateway answered message %q, expected %q", gwResp.ID, id)
	}
	if gwResp.Result == nil {
		return nil, errors.New("gateway returned no result")
	}

	nodes := make([]entity.NodeResponse, 0, len(gwResp.Result.Body.Payload.NodeResponses))
	for _, n := range gwResp.Result.Body.Payload.NodeResponses {
		nodes = append(nodes, entity.NodeResponse{
			NodeAddress: n.Body.Sender,
			Success:     n.Body.Payload.Success,
			Error:       n.Body.Payload.ErrorMessage,
		})
	}
	return nodes, nil
}
