package schoolapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/kat-co/vala"
	"github.com/pkg/errors"
	"github.com/sendgrid/rest"

	"github.com/trezcool/masomo-parents/core"
	"github.com/trezcool/masomo-parents/core/parent"
)

const (
	childrenPath  = "/parents/me/children"
	dashboardPath = "/parents/me/dashboard"
	linkPath      = "/parents/me/children/link"
)

// Client talks to the school API. It is shared; use ForToken to act as a parent.
type Client struct {
	baseURL string
	rest    *rest.Client
	logger  core.Logger
}

var _ parent.APIProvider = (*Client)(nil)

func NewClient(conf core.SchoolAPIConfig, logger core.Logger) (*Client, error) {
	err := vala.BeginValidation().Validate(
		vala.StringNotEmpty(conf.BaseURL, "baseURL"),
		core.IsNotNil(logger, "logger"),
	).Check()
	if err != nil {
		return nil, errors.Wrap(err, "creating school api client")
	}

	timeout := conf.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(conf.BaseURL, "/"),
		rest:    &rest.Client{HTTPClient: &http.Client{Timeout: timeout}},
		logger:  logger,
	}, nil
}

// ForToken returns the school API as seen by the owner of token.
func (c *Client) ForToken(token string) parent.API {
	return &parentAPI{client: c, token: token}
}

func (c *Client) do(ctx context.Context, token string, method rest.Method, path string, in, out interface{}) error {
	reqID := uuid.New().String()
	req := rest.Request{
		Method:  method,
		BaseURL: c.baseURL + path,
		Headers: map[string]string{
			"Accept":       "application/json",
			"X-Request-ID": reqID,
		},
	}
	if token != "" {
		req.Headers["Authorization"] = "Bearer " + token
	}
	if in != nil {
		body, err := json.Marshal(in)
		if err != nil {
			return errors.Wrap(err, "encoding request body")
		}
		req.Body = body
		req.Headers["Content-Type"] = "application/json"
	}

	op := fmt.Sprintf("%s %s", method, path)
	res, err := c.rest.SendWithContext(ctx, req)
	if err != nil {
		return &TransportError{Op: op, Err: err}
	}
	if res.StatusCode >= http.StatusBadRequest {
		apiErr := newAPIError(res.StatusCode, res.Body)
		if res.StatusCode >= http.StatusInternalServerError {
			c.logger.Warn(fmt.Sprintf("%s [%s]: %v", op, reqID, apiErr))
		}
		return apiErr
	}
	if out == nil {
		return nil
	}
	if err = json.Unmarshal([]byte(res.Body), out); err != nil {
		return errors.Wrapf(err, "decoding %s response", op)
	}
	return nil
}

type parentAPI struct {
	client *Client
	token  string
}

var _ parent.API = (*parentAPI)(nil)

func (api *parentAPI) GetMyChildren(ctx context.Context) ([]parent.BackendChild, error) {
	children := make([]parent.BackendChild, 0)
	if err := api.client.do(ctx, api.token, rest.Get, childrenPath, nil, &children); err != nil {
		return nil, err
	}
	return children, nil
}

func (api *parentAPI) GetParentDashboard(ctx context.Context) (parent.DashboardPayload, error) {
	var payload parent.DashboardPayload
	if err := api.client.do(ctx, api.token, rest.Get, dashboardPath, nil, &payload); err != nil {
		return parent.DashboardPayload{}, err
	}
	return payload, nil
}

func (api *parentAPI) LinkChild(ctx context.Context, req parent.LinkChildRequest) (parent.LinkChildResponse, error) {
	var resp parent.LinkChildResponse
	if err := api.client.do(ctx, api.token, rest.Post, linkPath, req, &resp); err != nil {
		return parent.LinkChildResponse{}, err
	}
	return resp, nil
}
