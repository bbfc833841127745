// Package apiclient implements the backend request/response contract over
// HTTP.
package apiclient

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"

	"github.com/foodbridge/client-core/internal/domain/conversation"
	"github.com/foodbridge/client-core/internal/domain/listing"
	"github.com/foodbridge/client-core/internal/domain/request"
	"github.com/foodbridge/client-core/internal/infrastructure/metrics"
	"github.com/foodbridge/client-core/internal/utils/clienterrors"
	"github.com/foodbridge/client-core/internal/utils/idgen"
)

// Client talks to the FoodBridge backend. The remote store is an opaque
// collaborator: every method is a plain request/response call carrying the
// bearer token and a per-call correlation ID.
type Client struct {
	http     *resty.Client
	validate *validator.Validate
	log      zerolog.Logger
}

// Compile-time checks that the client satisfies every domain contract.
var (
	_ listing.Fetcher             = (*Client)(nil)
	_ listing.Withdrawer          = (*Client)(nil)
	_ request.Backend             = (*Client)(nil)
	_ conversation.Backend        = (*Client)(nil)
	_ conversation.MessageFetcher = (*Client)(nil)
	_ conversation.Sender         = (*Client)(nil)
)

// New creates a backend client.
func New(baseURL, authToken string, timeout time.Duration, log zerolog.Logger) *Client {
	httpClient := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json")
	if authToken != "" {
		httpClient.SetAuthToken(authToken)
	}
	httpClient.OnBeforeRequest(func(_ *resty.Client, req *resty.Request) error {
		req.SetHeader("X-Request-ID", idgen.MustNewID(idgen.PrefixCorrelation))
		return nil
	})

	return &Client{
		http:     httpClient,
		validate: validator.New(),
		log:      log.With().Str("component", "api-client").Logger(),
	}
}

// ListListings fetches listings, optionally filtered by category server-side.
func (c *Client) ListListings(ctx context.Context, category listing.Category) ([]listing.Listing, error) {
	var out []listing.Listing
	req := c.http.R().SetContext(ctx).SetResult(&out)
	if category != "" {
		req.SetQueryParam("category", string(category))
	}
	resp, err := req.Get("/v1/listings")
	if err := c.classify("list listings", resp, err, clienterrors.KindNetworkFailure); err != nil {
		return nil, err
	}
	return out, nil
}

// CreateListing publishes a new listing. The payload is validated before any
// network call.
func (c *Client) CreateListing(ctx context.Context, payload listing.NewListingPayload) (*listing.Listing, error) {
	if err := c.validate.Struct(payload); err != nil {
		return nil, clienterrors.Wrap(clienterrors.KindRequestFailed, "invalid listing payload", err)
	}

	var out listing.Listing
	resp, err := c.http.R().SetContext(ctx).SetBody(payload).SetResult(&out).Post("/v1/listings")
	if err := c.classify("create listing", resp, err, clienterrors.KindRequestFailed); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteListing withdraws a listing. Owner-only, enforced server-side.
func (c *Client) DeleteListing(ctx context.Context, id string) error {
	resp, err := c.http.R().SetContext(ctx).Delete("/v1/listings/" + id)
	return c.classify("delete listing", resp, err, clienterrors.KindRequestFailed)
}

// ListMyRequests fetches the current user's full request history, each entry
// carrying its conversation when the backend knows it.
func (c *Client) ListMyRequests(ctx context.Context) ([]request.Request, error) {
	var out []request.Request
	resp, err := c.http.R().SetContext(ctx).SetResult(&out).Get("/v1/requests/mine")
	if err := c.classify("list my requests", resp, err, clienterrors.KindNetworkFailure); err != nil {
		return nil, err
	}
	return out, nil
}

// CreateRequest submits a request against a listing.
func (c *Client) CreateRequest(ctx context.Context, listingID, message string) (*request.SubmitResult, error) {
	body := map[string]string{"listing_id": listingID, "message": message}
	var out request.SubmitResult
	resp, err := c.http.R().SetContext(ctx).SetBody(body).SetResult(&out).Post("/v1/requests")
	if err := c.classify("create request", resp, err, clienterrors.KindRequestFailed); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListListingRequests fetches all requests against one listing. Owner-only.
func (c *Client) ListListingRequests(ctx context.Context, listingID string) ([]request.Request, error) {
	var out []request.Request
	resp, err := c.http.R().SetContext(ctx).SetResult(&out).Get(fmt.Sprintf("/v1/listings/%s/requests", listingID))
	if err := c.classify("list listing requests", resp, err, clienterrors.KindNetworkFailure); err != nil {
		return nil, err
	}
	return out, nil
}

// AcceptRequest accepts a pending request.
func (c *Client) AcceptRequest(ctx context.Context, requestID string) error {
	resp, err := c.http.R().SetContext(ctx).Post(fmt.Sprintf("/v1/requests/%s/accept", requestID))
	return c.classify("accept request", resp, err, clienterrors.KindRequestFailed)
}

// DeclineRequest declines a pending request.
func (c *Client) DeclineRequest(ctx context.Context, requestID string) error {
	resp, err := c.http.R().SetContext(ctx).Post(fmt.Sprintf("/v1/requests/%s/decline", requestID))
	return c.classify("decline request", resp, err, clienterrors.KindRequestFailed)
}

// ListConversations fetches the current user's conversation set.
func (c *Client) ListConversations(ctx context.Context) ([]conversation.Conversation, error) {
	var out []conversation.Conversation
	resp, err := c.http.R().SetContext(ctx).SetResult(&out).Get("/v1/conversations")
	if err := c.classify("list conversations", resp, err, clienterrors.KindNetworkFailure); err != nil {
		return nil, err
	}
	return out, nil
}

// CreateConversation opens a conversation between the given participants.
func (c *Client) CreateConversation(ctx context.Context, participantIDs []string, listingID string) (*conversation.Conversation, error) {
	body := map[string]any{"participant_ids": participantIDs}
	if listingID != "" {
		body["listing_id"] = listingID
	}
	var out conversation.Conversation
	resp, err := c.http.R().SetContext(ctx).SetBody(body).SetResult(&out).Post("/v1/conversations")
	if err := c.classify("create conversation", resp, err, clienterrors.KindNetworkFailure); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListMessages fetches the full message log of a conversation.
func (c *Client) ListMessages(ctx context.Context, conversationID string) ([]conversation.Message, error) {
	var out []conversation.Message
	resp, err := c.http.R().SetContext(ctx).SetResult(&out).Get(fmt.Sprintf("/v1/conversations/%s/messages", conversationID))
	if err := c.classify("list messages", resp, err, clienterrors.KindNetworkFailure); err != nil {
		return nil, err
	}
	return out, nil
}

// SendMessage writes a message to a conversation and returns the stored copy.
func (c *Client) SendMessage(ctx context.Context, conversationID, content string) (*conversation.Message, error) {
	body := map[string]string{"content": content}
	var out conversation.Message
	resp, err := c.http.R().SetContext(ctx).SetBody(body).SetResult(&out).
		Post(fmt.Sprintf("/v1/conversations/%s/messages", conversationID))
	if err := c.classify("send message", resp, err, clienterrors.KindSendFailed); err != nil {
		return nil, err
	}
	return &out, nil
}

// classify maps a transport error or HTTP status to the client error
// taxonomy. failKind is the operation's terminal kind for non-transport,
// non-auth failures.
func (c *Client) classify(op string, resp *resty.Response, err error, failKind clienterrors.Kind) error {
	if err != nil {
		metrics.RecordAPIError(string(clienterrors.KindNetworkFailure))
		return clienterrors.Wrap(clienterrors.KindNetworkFailure, op, err)
	}
	if resp.IsSuccess() {
		return nil
	}

	kind := failKind
	switch resp.StatusCode() {
	case http.StatusUnauthorized, http.StatusForbidden:
		kind = clienterrors.KindUnauthorized
	case http.StatusConflict:
		kind = clienterrors.KindAlreadyRequested
	case http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		kind = clienterrors.KindNetworkFailure
	}

	metrics.RecordAPIError(string(kind))
	c.log.Warn().Str("op", op).Int("status", resp.StatusCode()).Str("kind", string(kind)).Msg("backend call failed")
	return clienterrors.Newf(kind, "%s: backend returned %d", op, resp.StatusCode())
}
