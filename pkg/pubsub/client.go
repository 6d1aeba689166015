package pubsub

import (
	"context"
	"fmt"

	gps "cloud.google.com/go/pubsub/v2"
	"cloud.google.com/go/pubsub/v2/apiv1/pubsubpb"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/azafe/MyPhone-Backend/pkg/config"
)

// Client wraps the Pub/Sub v2 client with the topic naming this
// service uses.
type Client struct {
	client    *gps.Client
	projectID string
}

func New(ctx context.Context, cfg config.PubSubConfig) (*Client, error) {
	client, err := gps.NewClient(ctx, cfg.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("pubsub client: %w", err)
	}
	return &Client{client: client, projectID: cfg.ProjectID}, nil
}

// TopicName returns the fully qualified topic resource name.
func (c *Client) TopicName(topicID string) string {
	return fmt.Sprintf("projects/%s/topics/%s", c.projectID, topicID)
}

// EnsureTopicExists fails fast when the configured topic is missing,
// so the publisher does not spin on a misconfigured deployment.
func (c *Client) EnsureTopicExists(ctx context.Context, topicID string) error {
	fullName := c.TopicName(topicID)
	_, err := c.client.TopicAdminClient.GetTopic(ctx, &pubsubpb.GetTopicRequest{Topic: fullName})
	if err != nil {
		// v2 uses gRPC errors; NotFound means the topic doesn't exist.
		if status.Code(err) == codes.NotFound {
			return fmt.Errorf("topic %q does not exist", topicID)
		}
		return fmt.Errorf("checking topic %q: %w", topicID, err)
	}
	return nil
}

// Publish sends one message and blocks until the server acks it.
func (c *Client) Publish(ctx context.Context, topicID string, data []byte, attrs map[string]string) (string, error) {
	publisher := c.client.Publisher(c.TopicName(topicID))
	defer publisher.Stop()

	result := publisher.Publish(ctx, &gps.Message{
		Data:       data,
		Attributes: attrs,
	})
	id, err := result.Get(ctx)
	if err != nil {
		return "", fmt.Errorf("publish to %s: %w", topicID, err)
	}
	return id, nil
}

func (c *Client) Close() error {
	return c.client.Close()
}
