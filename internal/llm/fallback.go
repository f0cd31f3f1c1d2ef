package llm

import (
	"context"
	"errors"
	"log/slog"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
)

// FallbackChatModel sends each request to Primary and retries it once on
// Secondary when Primary fails. Cancellation is never retried.
type FallbackChatModel struct {
	Primary   model.BaseChatModel
	Secondary model.BaseChatModel
	Logger    *slog.Logger
}

var _ model.BaseChatModel = (*FallbackChatModel)(nil)

// WithFallback returns primary unchanged when secondary is nil.
func WithFallback(primary, secondary model.BaseChatModel, logger *slog.Logger) model.BaseChatModel {
	if secondary == nil {
		return primary
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &FallbackChatModel{Primary: primary, Secondary: secondary, Logger: logger}
}

func (f *FallbackChatModel) Generate(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.Message, error) {
	msg, err := f.Primary.Generate(ctx, input, opts...)
	if err == nil || !shouldFallback(ctx, err) {
		return msg, err
	}
	f.Logger.Warn("primary model failed, using fallback", "error", err)
	msg, ferr := f.Secondary.Generate(ctx, input, opts...)
	if ferr != nil {
		return nil, errors.Join(err, ferr)
	}
	return msg, nil
}

func (f *FallbackChatModel) Stream(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	sr, err := f.Primary.Stream(ctx, input, opts...)
	if err == nil || !shouldFallback(ctx, err) {
		return sr, err
	}
	f.Logger.Warn("primary model stream failed, using fallback", "error", err)
	sr, ferr := f.Secondary.Stream(ctx, input, opts...)
	if ferr != nil {
		return nil, errors.Join(err, ferr)
	}
	return sr, nil
}

func shouldFallback(ctx context.Context, err error) bool {
	if ctx.Err() != nil {
		return false
	}
	return !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
}
