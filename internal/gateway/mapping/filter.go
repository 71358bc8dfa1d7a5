package mapping

import (
	"github.com/gin-gonic/gin"

	"restfront-gateway/internal/gateway/fieldpath"
	"restfront-gateway/internal/gateway/reqopts"
)

// FilterOptions narrows a backend result before rendering.
type FilterOptions struct {
	// Clone copies the result first so the backend's own value survives
	// the filtering untouched.
	Clone bool
	// Basepath addresses the subtree the pick and omit lists apply to.
	// Empty means the whole result.
	Basepath string
	Pick     []string
	Omit     []string
}

// FilterMethodResult builds an output transform that narrows a map result
// per the filter options and hands it on to next when given. Non-map
// results pass through unfiltered.
func FilterMethodResult(opts FilterOptions, next OutputTransformFunc) OutputTransformFunc {
	return func(result interface{}, c *gin.Context, reqOpts reqopts.Options) interface{} {
		fields, ok := result.(map[string]interface{})
		if !ok {
			return callNext(next, result, c, reqOpts)
		}

		resp := fields
		if opts.Clone {
			resp = fieldpath.Clone(fields)
		}

		selected := opts.Basepath != ""
		target := resp
		if selected {
			value, _ := fieldpath.Get(resp, opts.Basepath)
			target, _ = value.(map[string]interface{})
		}

		if opts.Pick != nil {
			target = fieldpath.Pick(target, opts.Pick)
		}
		if opts.Omit != nil {
			target = fieldpath.Omit(target, opts.Omit)
		}

		if selected {
			fieldpath.Set(resp, opts.Basepath, target)
			return callNext(next, resp, c, reqOpts)
		}
		return callNext(next, target, c, reqOpts)
	}
}

func callNext(next OutputTransformFunc, result interface{}, c *gin.Context, opts reqopts.Options) interface{} {
	if next == nil {
		return result
	}
	return next(result, c, opts)
}
