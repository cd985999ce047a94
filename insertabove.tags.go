package insertabove

import (
	"github.com/flosch/pongo2/v6"
)

func init() {
	mustRegisterTag(TagNameHandler, parseHandlerTag)
	mustRegisterTag(TagNameContainer, parseContainerTag(TagNameContainer, false))
	mustRegisterTag(TagNameMediaContainer, parseContainerTag(TagNameMediaContainer, true))
	mustRegisterTag(TagNameInsertStr, parseInsertStrTag(TagNameInsertStr))
	mustRegisterTag(TagNameInsertForm, parseInsertStrTag(TagNameInsertForm))
	mustRegisterTag(TagNameInsert, parseInsertTag)

	if err := pongo2.RegisterFilter(FilterNameMediaTag, filterMediaTag); err != nil {
		panic(err)
	}
}

func mustRegisterTag(name string, parser pongo2.TagParser) {
	if err := pongo2.RegisterTag(name, parser); err != nil {
		panic(err)
	}
}

// parseHandlerTag parses {% insert_handler %}...{% endinsert_handler %}.
// Any further handler in the rest of the document, nested or not, is rejected.
func parseHandlerTag(doc *pongo2.Parser, start *pongo2.Token, arguments *pongo2.Parser) (pongo2.INodeTag, *pongo2.Error) {
	if arguments.Count() != 0 {
		return nil, tagError(TagNameHandler, start, NewTagArgumentsError(TagNameHandler, "0"))
	}
	if t := findHandlerTag(doc); t != nil {
		return nil, tagError(TagNameHandler, t, NewNestedHandlerError())
	}

	wrapper, endArgs, err := doc.WrapUntilTag(TagNameHandlerEnd)
	if err != nil {
		return nil, err
	}
	if endArgs.Count() != 0 {
		return nil, tagError(TagNameHandlerEnd, endArgs.Current(), NewTagArgumentsError(TagNameHandlerEnd, "0"))
	}

	return &handlerNode{token: start, wrapper: wrapper}, nil
}

// findHandlerTag returns the name token of the next insert_handler tag left in doc.
func findHandlerTag(doc *pongo2.Parser) *pongo2.Token {
	for shift := 0; shift < doc.Remaining()-1; shift++ {
		if doc.PeekN(shift, pongo2.TokenSymbol, "{%") == nil {
			continue
		}
		if t := doc.PeekN(shift+1, pongo2.TokenIdentifier, TagNameHandler); t != nil {
			return t
		}
	}
	return nil
}

// parseContainerTag parses {% container name %} and {% media_container name %}.
func parseContainerTag(tagName string, media bool) pongo2.TagParser {
	return func(doc *pongo2.Parser, start *pongo2.Token, arguments *pongo2.Parser) (pongo2.INodeTag, *pongo2.Error) {
		if arguments.Count() != 1 {
			return nil, tagError(tagName, start, NewTagArgumentsError(tagName, "1"))
		}
		bucket, perr := parseBucketName(tagName, arguments)
		if perr != nil {
			return nil, perr
		}
		return &containerNode{
			tag:    tagName,
			token:  start,
			bucket: bucket,
			media:  media,
		}, nil
	}
}

// parseInsertStrTag parses {% insert_str name expr %}.
func parseInsertStrTag(tagName string) pongo2.TagParser {
	return func(doc *pongo2.Parser, start *pongo2.Token, arguments *pongo2.Parser) (pongo2.INodeTag, *pongo2.Error) {
		if arguments.Count() < 2 {
			return nil, tagError(tagName, start, NewTagArgumentsError(tagName, "2"))
		}
		bucket, perr := parseBucketName(tagName, arguments)
		if perr != nil {
			return nil, perr
		}
		expr, perr := arguments.ParseExpression()
		if perr != nil {
			return nil, perr
		}
		if arguments.Remaining() != 0 {
			return nil, tagError(tagName, arguments.Current(), NewTagArgumentsError(tagName, "2"))
		}
		return &insertNode{
			tag:    tagName,
			token:  start,
			bucket: bucket,
			expr:   expr,
		}, nil
	}
}

// parseInsertTag parses {% insert name %}...{% endinsert %}.
func parseInsertTag(doc *pongo2.Parser, start *pongo2.Token, arguments *pongo2.Parser) (pongo2.INodeTag, *pongo2.Error) {
	if arguments.Count() != 1 {
		return nil, tagError(TagNameInsert, start, NewTagArgumentsError(TagNameInsert, "1"))
	}
	bucket, perr := parseBucketName(TagNameInsert, arguments)
	if perr != nil {
		return nil, perr
	}

	wrapper, endArgs, perr := doc.WrapUntilTag(TagNameInsertEnd)
	if perr != nil {
		return nil, perr
	}
	if endArgs.Count() != 0 {
		return nil, tagError(TagNameInsertEnd, endArgs.Current(), NewTagArgumentsError(TagNameInsertEnd, "0"))
	}

	return &insertNode{
		tag:    TagNameInsert,
		token:  start,
		bucket: bucket,
		body:   wrapper,
	}, nil
}

// parseBucketName consumes a bare identifier or a quoted string.
func parseBucketName(tagName string, arguments *pongo2.Parser) (string, *pongo2.Error) {
	if t := arguments.MatchType(pongo2.TokenIdentifier); t != nil {
		return t.Val, nil
	}
	if t := arguments.MatchType(pongo2.TokenString); t != nil && t.Val != "" {
		return t.Val, nil
	}
	return "", tagError(tagName, arguments.Current(), NewBucketNameError(tagName))
}

// filterMediaTag implements {{ url|media_tag }} with the package default
// formatter; pongo2 filters cannot see the render that calls them.
func filterMediaTag(in *pongo2.Value, _ *pongo2.Value) (*pongo2.Value, *pongo2.Error) {
	out, err := DefaultMediaFormatter().Tag(in.String())
	if err != nil {
		return nil, &pongo2.Error{
			Sender:    "filter:" + FilterNameMediaTag,
			OrigError: err,
		}
	}
	return pongo2.AsSafeValue(out), nil
}

// mediaTagFunc implements {{ media_tag(url) }} with the settings of the current render.
func mediaTagFunc(ctx *pongo2.ExecutionContext, url *pongo2.Value) (*pongo2.Value, error) {
	out, err := SessionFrom(ctx).Formatter().Tag(url.String())
	if err != nil {
		return nil, err
	}
	return pongo2.AsSafeValue(out), nil
}
