package config

// Sizing constants for the pipeline, per spec §6. These are fixed
// tunables rather than user-facing config fields.
const (
	// MaxTokensPerModule is the clustering budget for one frontier: when
	// the frontier's component listing estimates at or below it, a nested
	// clustering call adds no children and the root call wraps the whole
	// frontier in a single "main" module.
	MaxTokensPerModule = 32768

	// MaxTokensPerLeafModule is the equivalent budget for a leaf module.
	MaxTokensPerLeafModule = 16000

	// MinComponentsForClustering is the smallest frontier the clusterer
	// will group; below it, clustering returns an empty tree.
	MinComponentsForClustering = 3

	// MaxClusteringPromptTokens bounds the component listing in the
	// clustering prompt; a longer listing is cut at a line boundary
	// before the LLM call.
	MaxClusteringPromptTokens = 100000

	// MaxLLMContext is the assumed input context window used for
	// auto-split and chunking decisions.
	MaxLLMContext = 100000

	// MaxLLMOutputTokens bounds expected completion length.
	MaxLLMOutputTokens = 16384

	// LargeRepoComponentThreshold is the component-count above which the
	// tiered (summarized) module-tree view replaces the full view in
	// prompts.
	LargeRepoComponentThreshold = 500

	// TargetTokensPerChunk is the target size of each part_N chunk when
	// a leaf module is split by source size rather than by directory.
	TargetTokensPerChunk = 80000

	// MaxAutoSplitDepth bounds recursive auto-split delegation.
	MaxAutoSplitDepth = 5

	// MinDepth is the depth floor for sub-modules delegated through
	// generate_sub_module_documentation: below it, a sub-module with two
	// or more components gets a complex agent, and a directory split is
	// forced when that agent creates no children.
	MinDepth = 2
)
