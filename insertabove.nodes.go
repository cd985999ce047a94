package insertabove

import (
	"bytes"
	"errors"
	"strings"

	"github.com/flosch/pongo2/v6"
	"go.uber.org/zap"

	"github.com/itsatony/go-insertabove/internal"
)

// insertNode is a deposit point. It renders nothing at its own position and
// appends its payload to a bucket of the render session.
type insertNode struct {
	tag    string
	token  *pongo2.Token
	bucket string
	expr   pongo2.IEvaluator
	body   *pongo2.NodeWrapper
}

// NewInsertNode builds a deposit point for bucket. Exactly one of expr and
// body must be set; anything else fails when the node is executed.
func NewInsertNode(bucket string, expr pongo2.IEvaluator, body *pongo2.NodeWrapper) pongo2.INodeTag {
	tag := TagNameInsertStr
	if body != nil {
		tag = TagNameInsert
	}
	return &insertNode{tag: tag, bucket: bucket, expr: expr, body: body}
}

func (n *insertNode) Execute(ctx *pongo2.ExecutionContext, _ pongo2.TemplateWriter) *pongo2.Error {
	s := SessionFrom(ctx)
	start := s.start()
	defer s.stop(start)

	payload, err := n.resolve(ctx)
	if err != nil {
		return err
	}
	s.Append(n.bucket, payload)
	return nil
}

// resolve evaluates the payload against ctx. It runs on every execution, so
// a node inside a loop deposits once per iteration.
func (n *insertNode) resolve(ctx *pongo2.ExecutionContext) (any, *pongo2.Error) {
	if (n.expr == nil) == (n.body == nil) {
		return nil, ctx.OrigError(NewPayloadSourceError(n.bucket), n.token)
	}

	if n.body != nil {
		var buf bytes.Buffer
		if err := n.body.Execute(ctx, &buf); err != nil {
			return nil, err
		}
		return buf.String(), nil
	}

	v, err := n.expr.Evaluate(ctx)
	if err != nil {
		return nil, ctx.OrigError(NewResolveError(n.bucket, err), n.token)
	}
	if v == nil || v.IsNil() {
		return nil, ctx.OrigError(NewUndefinedValueError(n.bucket), n.expr.GetPositionToken())
	}
	return v.Interface(), nil
}

// containerNode is an output container. Inside a page handler it writes a
// marker and is rendered after the rest of the handler body; elsewhere it
// renders in place.
type containerNode struct {
	tag    string
	token  *pongo2.Token
	bucket string
	media  bool
}

func (n *containerNode) Execute(ctx *pongo2.ExecutionContext, writer pongo2.TemplateWriter) *pongo2.Error {
	var out string
	if sw := SessionFrom(ctx).splice; sw != nil {
		out = sw.Defer(func() (string, error) {
			rendered, err := n.render(ctx)
			if err != nil {
				return "", err
			}
			return rendered, nil
		})
	} else {
		rendered, err := n.render(ctx)
		if err != nil {
			return err
		}
		out = rendered
	}
	if _, werr := writer.WriteString(out); werr != nil {
		return ctx.OrigError(werr, n.token)
	}
	return nil
}

func (n *containerNode) render(ctx *pongo2.ExecutionContext) (string, *pongo2.Error) {
	s := SessionFrom(ctx)
	start := s.start()
	defer s.stop(start)

	items := s.Bucket(n.bucket)
	if len(items) == 0 {
		return "", nil
	}

	var (
		out   string
		count int
		err   error
	)
	if n.media {
		out, count, err = renderMediaItems(s.Formatter(), items)
		s.metrics.observeContainer(ContainerKindMedia, count)
	} else {
		out, err = renderVerbatimItems(s.Formatter(), items)
		s.metrics.observeContainer(ContainerKindVerbatim, len(items))
	}
	if err != nil {
		return "", ctx.OrigError(err, n.token)
	}
	return out, nil
}

// renderVerbatimItems joins the text of every item in order.
func renderVerbatimItems(f *MediaFormatter, items []OrderedItem[any]) (string, error) {
	parts := make([]string, 0, len(items))
	for _, item := range items {
		text, err := payloadText(f, item.Payload)
		if err != nil {
			return "", err
		}
		parts = append(parts, text)
	}
	return strings.Join(parts, ItemSeparator), nil
}

// renderMediaItems expands every item into URLs and renders the unique ones.
// It also returns how many tags were rendered.
func renderMediaItems(f *MediaFormatter, items []OrderedItem[any]) (string, int, error) {
	var entries []MediaEntry
	for _, item := range items {
		entries = append(entries, expandMediaEntries(item.Payload)...)
	}
	out, err := f.RenderEntries(entries)
	if err != nil || out == "" {
		return out, 0, err
	}
	return out, strings.Count(out, ItemSeparator) + 1, nil
}

// payloadText converts a deposited value into container output.
func payloadText(f *MediaFormatter, payload any) (string, error) {
	if m, ok := mediaOf(payload); ok {
		return f.RenderMedia(m)
	}
	switch p := payload.(type) {
	case nil:
		return "", nil
	case string:
		return p, nil
	case *pongo2.Value:
		return p.String(), nil
	}
	return pongo2.AsValue(payload).String(), nil
}

// handlerNode is the page handler. It renders its body once, leaving holes
// for containers, then fills the holes once every deposit has been made.
type handlerNode struct {
	token   *pongo2.Token
	wrapper *pongo2.NodeWrapper
}

func (n *handlerNode) Execute(ctx *pongo2.ExecutionContext, writer pongo2.TemplateWriter) *pongo2.Error {
	s := SessionFrom(ctx)
	if !s.enterHandler() {
		return ctx.OrigError(NewNestedHandlerError(), n.token)
	}

	sw := internal.NewSpliceWriter()
	s.splice = sw
	execErr := n.wrapper.Execute(ctx, sw)
	s.splice = nil
	if execErr != nil {
		return execErr
	}

	out, err := sw.Splice()
	if err != nil {
		var perr *pongo2.Error
		if errors.As(err, &perr) {
			return perr
		}
		return ctx.OrigError(err, n.token)
	}

	if s.debug {
		s.logger.Debug(LogMsgInsertTagsTiming,
			zap.Duration(LogFieldElapsed, s.Elapsed()),
			zap.Strings(LogFieldBuckets, s.BucketNames()),
		)
	}

	if _, werr := writer.WriteString(out); werr != nil {
		return ctx.OrigError(werr, n.token)
	}
	return nil
}
