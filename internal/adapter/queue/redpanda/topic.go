package redpanda

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/cenkalti/backoff/v4"
	"github.com/twmb/franz-go/pkg/kerr"
	"github.com/twmb/franz-go/pkg/kmsg"

	"github.com/fairyhunter13/ai-provider-router/internal/domain"
)

// requester is the admin surface of *kgo.Client used for topic creation.
type requester interface {
	Request(ctx context.Context, req kmsg.Request) (kmsg.Response, error)
}

// ensureTopic creates topic unless it already exists. Broker and transport
// errors are retried under bo; invalid arguments are not.
func ensureTopic(ctx context.Context, cl requester, topic string, partitions int32, replicationFactor int16, bo backoff.BackOff) error {
	if topic == "" {
		return fmt.Errorf("op=redpanda.ensure_topic: %w: empty topic name", domain.ErrInvalidArgument)
	}
	if partitions <= 0 || replicationFactor <= 0 {
		return fmt.Errorf("op=redpanda.ensure_topic: %w: partitions and replication factor must be positive", domain.ErrInvalidArgument)
	}

	op := func() error {
		req := kmsg.NewCreateTopicsRequest()
		req.TimeoutMillis = 30000
		t := kmsg.NewCreateTopicsRequestTopic()
		t.Topic = topic
		t.NumPartitions = partitions
		t.ReplicationFactor = replicationFactor
		req.Topics = append(req.Topics, t)

		resp, err := cl.Request(ctx, &req)
		if err != nil {
			return fmt.Errorf("create topics request: %w", err)
		}
		ctr, ok := resp.(*kmsg.CreateTopicsResponse)
		if !ok {
			return backoff.Permanent(fmt.Errorf("unexpected response type %T", resp))
		}
		for _, tr := range ctr.Topics {
			if tr.ErrorCode == 0 {
				slog.Info("topic created", slog.String("topic", tr.Topic), slog.Int("partitions", int(partitions)))
				continue
			}
			if tr.ErrorCode == kerr.TopicAlreadyExists.Code {
				slog.Debug("topic already exists", slog.String("topic", tr.Topic))
				continue
			}
			msg := ""
			if tr.ErrorMessage != nil {
				msg = *tr.ErrorMessage
			}
			return fmt.Errorf("create topic %s: %w (%s)", tr.Topic, kerr.ErrorForCode(tr.ErrorCode), msg)
		}
		return nil
	}
	if err := backoff.Retry(op, backoff.WithContext(bo, ctx)); err != nil {
		return fmt.Errorf("op=redpanda.ensure_topic: %w", err)
	}
	return nil
}
