package cluster

import (
	"strings"

	"github.com/archloom/archloom/internal/model"
)

// DirectoryFallback implements spec §4.5.1: a deterministic grouping by
// top-level repo directory, invoked whenever the LLM call fails, times
// out, truncates, or its response fails to parse. currentPath is the
// dotted path of the module being clustered ("" at root); isRoot selects
// the "main" name used when the whole frontier collapses to one bucket.
func DirectoryFallback(components model.ComponentTable, frontier []string, currentPath string, isRoot bool) model.ModuleTree {
	buckets := bucketBySegments(components, frontier, 1)

	if len(buckets) <= 2 && anyBucketOversized(buckets) {
		reBucketed := bucketBySegments(components, frontier, 2)
		if len(reBucketed) > len(buckets) {
			buckets = reBucketed
		}
	}

	tree := model.ModuleTree{}
	for key, ids := range buckets {
		name := normalizeBucketKey(key)
		tree[name] = &model.Module{Components: ids}
	}

	if len(tree) == 1 {
		single := enclosingModuleName(currentPath, isRoot)
		for _, m := range tree {
			return model.ModuleTree{single: m}
		}
	}

	return tree
}

func bucketBySegments(components model.ComponentTable, frontier []string, segments int) map[string][]string {
	buckets := map[string][]string{}
	for _, id := range frontier {
		c, ok := components[id]
		if !ok {
			continue
		}
		key := bucketKey(c.RelativePath, segments)
		buckets[key] = append(buckets[key], id)
	}
	return buckets
}

func bucketKey(relativePath string, segments int) string {
	parts := strings.Split(strings.TrimPrefix(relativePath, "/"), "/")
	if len(parts) <= 1 {
		return ""
	}
	n := segments
	if n > len(parts)-1 {
		n = len(parts) - 1
	}
	return strings.Join(parts[:n], "/")
}

func anyBucketOversized(buckets map[string][]string) bool {
	for _, ids := range buckets {
		if len(ids) > 500 {
			return true
		}
	}
	return false
}

func normalizeBucketKey(key string) string {
	if key == "" {
		return "other"
	}
	return toSnakeCase(key)
}

func toSnakeCase(s string) string {
	replacer := strings.NewReplacer("/", "_", "-", "_", " ", "_", ".", "_")
	s = replacer.Replace(s)
	s = strings.ToLower(s)
	for strings.Contains(s, "__") {
		s = strings.ReplaceAll(s, "__", "_")
	}
	return strings.Trim(s, "_")
}

func enclosingModuleName(currentPath string, isRoot bool) string {
	if isRoot {
		return "main"
	}
	i := strings.LastIndex(currentPath, ".")
	if i < 0 {
		return currentPath
	}
	return currentPath[i+1:]
}
