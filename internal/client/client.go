// Package client talks to the console HTTP API on behalf of camctl.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/zanzhit/ptz_console/internal/domain/models"
	"github.com/zanzhit/ptz_console/internal/lib/api/response"
)

type Client struct {
	http *resty.Client
}

func New(baseURL string, timeout time.Duration) *Client {
	r := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json").
		SetError(&response.Response{})

	return &Client{http: r}
}

// Command is the body of a dispatch request.
type Command struct {
	Path         string          `json:"path"`
	Mode         string          `json:"mode,omitempty"`
	Method       string          `json:"method,omitempty"`
	Data         json.RawMessage `json:"data,omitempty"`
	Refresh      *bool           `json:"refresh,omitempty"`
	AwaitRefresh bool            `json:"await_refresh,omitempty"`
}

type Refresh struct {
	Pending bool                         `json:"pending"`
	States  map[int64]models.ActiveState `json:"states,omitempty"`
	Error   string                       `json:"error,omitempty"`
}

type Round struct {
	RoundID  string                          `json:"roundId"`
	Outcomes map[int64]models.CommandOutcome `json:"outcomes"`
	Refresh  *Refresh                        `json:"refresh,omitempty"`
}

type GestureReset struct {
	Outcomes map[string]models.CommandOutcome `json:"outcomes"`
	State    models.TrackingPoll              `json:"state"`
}

func (c *Client) Groups(ctx context.Context) ([]models.Group, error) {
	var groups []models.Group

	return groups, c.do(c.http.R().SetContext(ctx).SetResult(&groups), resty.MethodGet, "/api/groups", "client.Groups")
}

func (c *Client) CreateGroup(ctx context.Context, name string) (models.Group, error) {
	var group models.Group

	req := c.http.R().SetContext(ctx).
		SetBody(map[string]string{"name": name}).
		SetResult(&group)

	return group, c.do(req, resty.MethodPost, "/api/groups", "client.CreateGroup")
}

func (c *Client) DeleteGroup(ctx context.Context, id int64) error {
	return c.do(c.http.R().SetContext(ctx), resty.MethodDelete, "/api/groups/"+itoa(id), "client.DeleteGroup")
}

func (c *Client) Cameras(ctx context.Context) ([]models.Camera, error) {
	var cams []models.Camera

	return cams, c.do(c.http.R().SetContext(ctx).SetResult(&cams), resty.MethodGet, "/api/cameras", "client.Cameras")
}

func (c *Client) CreateCamera(ctx context.Context, cam models.Camera) (models.Camera, error) {
	var saved models.Camera

	req := c.http.R().SetContext(ctx).
		SetBody(cam).
		SetResult(&saved)

	return saved, c.do(req, resty.MethodPost, "/api/cameras", "client.CreateCamera")
}

func (c *Client) DeleteCamera(ctx context.Context, id int64) error {
	return c.do(c.http.R().SetContext(ctx), resty.MethodDelete, "/api/cameras/"+itoa(id), "client.DeleteCamera")
}

func (c *Client) DispatchGroup(ctx context.Context, groupID int64, cmd Command) (Round, error) {
	return c.dispatch(ctx, "/api/groups/"+itoa(groupID)+"/commands", cmd, "client.DispatchGroup")
}

func (c *Client) DispatchCamera(ctx context.Context, cameraID int64, cmd Command) (Round, error) {
	return c.dispatch(ctx, "/api/cameras/"+itoa(cameraID)+"/commands", cmd, "client.DispatchCamera")
}

func (c *Client) DisableGestures(ctx context.Context, cameraID int64) (GestureReset, error) {
	var reset GestureReset

	req := c.http.R().SetContext(ctx).SetResult(&reset)

	return reset, c.do(req, resty.MethodPost, "/api/cameras/"+itoa(cameraID)+"/gestures/disable", "client.DisableGestures")
}

func (c *Client) Alive(ctx context.Context) (map[int64]bool, error) {
	var alive map[int64]bool

	return alive, c.do(c.http.R().SetContext(ctx).SetResult(&alive), resty.MethodGet, "/api/alive", "client.Alive")
}

func (c *Client) GroupInfo(ctx context.Context, groupID int64) (models.TrackingPoll, error) {
	var poll models.TrackingPoll

	req := c.http.R().SetContext(ctx).SetResult(&poll)

	return poll, c.do(req, resty.MethodGet, "/api/groups/"+itoa(groupID)+"/info", "client.GroupInfo")
}

func (c *Client) GroupTracking(ctx context.Context, groupID int64) (map[int64]models.ActiveState, error) {
	var states map[int64]models.ActiveState

	req := c.http.R().SetContext(ctx).SetResult(&states)

	return states, c.do(req, resty.MethodGet, "/api/groups/"+itoa(groupID)+"/tracking", "client.GroupTracking")
}

func (c *Client) dispatch(ctx context.Context, path string, cmd Command, op string) (Round, error) {
	var round Round

	req := c.http.R().SetContext(ctx).
		SetBody(cmd).
		SetResult(&round)

	return round, c.do(req, resty.MethodPost, path, op)
}

func (c *Client) do(req *resty.Request, method, path, op string) error {
	resp, err := req.Execute(method, path)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if resp.IsError() {
		if apiErr, ok := resp.Error().(*response.Response); ok && apiErr.Error != "" {
			return fmt.Errorf("%s: %s: %s", op, resp.Status(), apiErr.Error)
		}

		return fmt.Errorf("%s: %s", op, resp.Status())
	}

	return nil
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}
