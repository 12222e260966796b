package driver_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chatfield-dev/chatfield/builder"
	"github.com/chatfield-dev/chatfield/chatmodel"
	"github.com/chatfield-dev/chatfield/driver"
	"github.com/chatfield-dev/chatfield/telemetry"
)

// recordingLogger wraps a real no-op logger (so Debug/Info/Error stay
// harmless) and only intercepts Warn, to assert checkEndpoint logs through
// telemetry.Logger rather than the standard library.
type recordingLogger struct {
	telemetry.Logger
	warnings []string
}

func newRecordingLogger() *recordingLogger {
	return &recordingLogger{Logger: telemetry.NewNoopLogger()}
}

func (l *recordingLogger) Warn(_ context.Context, msg string, _ ...any) {
	l.warnings = append(l.warnings, msg)
}

type scriptedClient struct {
	t     *testing.T
	steps []func(req chatmodel.Request) chatmodel.Response
	calls int
}

func (s *scriptedClient) Complete(_ context.Context, req chatmodel.Request) (chatmodel.Response, error) {
	require.Lessf(s.t, s.calls, len(s.steps), "unexpected extra Complete call %d", s.calls)
	fn := s.steps[s.calls]
	s.calls++
	return fn(req), nil
}

func textMessage(content string) chatmodel.Response {
	return chatmodel.Response{Message: chatmodel.Message{Role: chatmodel.RoleAssistant, Content: content}}
}

func toolCallMessage(toolName, args string) chatmodel.Response {
	return chatmodel.Response{Message: chatmodel.Message{
		Role:      chatmodel.RoleAssistant,
		ToolCalls: []chatmodel.ToolCall{{ID: "call-1", Name: toolName, Arguments: []byte(args)}},
	}}
}

func TestDriver_GoThenEnd(t *testing.T) {
	c, err := builder.New().
		Type("Feedback").
		Field("comment").Desc("What did you think?").
		Build()
	require.NoError(t, err)

	client := &scriptedClient{t: t, steps: []func(chatmodel.Request) chatmodel.Response{
		func(chatmodel.Request) chatmodel.Response { return textMessage("What did you think?") },
		func(chatmodel.Request) chatmodel.Response {
			return toolCallMessage("update_feedback", `{"comment":{"value":"Loved it"}}`)
		},
		func(chatmodel.Request) chatmodel.Response { return textMessage("Glad to hear it!") },
	}}

	ctx := context.Background()
	d, err := driver.New(ctx, driver.Config{
		Interview: c,
		Client:    client,
		Model:     "openai:gpt-4o-mini",
	})
	require.NoError(t, err)

	out, err := d.Go(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, "What did you think?", out)

	input := "Loved it"
	out, err = d.Go(ctx, &input)
	require.NoError(t, err)
	assert.Equal(t, "Glad to hear it!", out)
	assert.Equal(t, "Loved it", c.Get("comment").String())

	require.NoError(t, d.End(ctx))

	_, err = d.Go(ctx, nil)
	assert.ErrorIs(t, err, driver.ErrAlreadyEnded)
}

func TestDriver_ToolSchemas(t *testing.T) {
	c, err := builder.New().
		Type("Feedback").
		Field("comment").Desc("What did you think?").
		Build()
	require.NoError(t, err)

	d, err := driver.New(context.Background(), driver.Config{
		Interview: c,
		Client:    &scriptedClient{t: t},
		Model:     "openai:gpt-4o-mini",
	})
	require.NoError(t, err)

	update, conclude := d.ToolSchemas()
	assert.Equal(t, "update_feedback", update.Name)
	assert.NotEmpty(t, conclude.Name)
}

func TestDriver_RejectsMissingModelPrefix(t *testing.T) {
	c, err := builder.New().Type("X").Field("f").Build()
	require.NoError(t, err)

	_, err = driver.New(context.Background(), driver.Config{
		Interview: c,
		Client:    &scriptedClient{t: t},
		Model:     "gpt-4o",
	})
	assert.ErrorIs(t, err, driver.ErrMissingModelPrefix)
}

func TestDriver_WarnSecurityLogsThroughTelemetry(t *testing.T) {
	c, err := builder.New().Type("X").Field("f").Build()
	require.NoError(t, err)

	logger := newRecordingLogger()
	_, err = driver.New(context.Background(), driver.Config{
		Interview:        c,
		Client:           &scriptedClient{t: t},
		Model:            "openai:gpt-4o",
		BaseURL:          "https://api.openai.com/v1",
		EndpointSecurity: driver.EndpointSecurityWarn,
		Logger:           logger,
	})
	require.NoError(t, err)
	require.Len(t, logger.warnings, 1)
	assert.Contains(t, logger.warnings[0], "well-known provider host")
}

func TestDriver_StrictSecurityRejectsMissingBaseURL(t *testing.T) {
	c, err := builder.New().Type("X").Field("f").Build()
	require.NoError(t, err)

	_, err = driver.New(context.Background(), driver.Config{
		Interview:        c,
		Client:           &scriptedClient{t: t},
		Model:            "openai:gpt-4o",
		EndpointSecurity: driver.EndpointSecurityStrict,
	})
	assert.ErrorIs(t, err, driver.ErrMissingBaseURL)
}
