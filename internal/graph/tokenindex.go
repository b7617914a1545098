package graph

import "sort"

// TokenIndex is an inverted index from name tokens to node ids, with the
// reverse mapping kept alongside so a node's entries can be removed without
// re-tokenizing. It gives the stitching rules sub-linear candidate discovery.
type TokenIndex struct {
	tokenToNodes map[string]map[string]struct{}
	nodeToTokens map[string]map[string]struct{}
}

// NewTokenIndex creates an empty token index.
func NewTokenIndex() *TokenIndex {
	return &TokenIndex{
		tokenToNodes: make(map[string]map[string]struct{}),
		nodeToTokens: make(map[string]map[string]struct{}),
	}
}

// Add indexes a node by its tokens. Callers re-indexing a node must Remove
// it first, or tokens from the prior version linger in the postings.
func (ti *TokenIndex) Add(nodeId string, tokens []string) {
	for _, token := range tokens {
		if ti.tokenToNodes[token] == nil {
			ti.tokenToNodes[token] = make(map[string]struct{})
		}
		ti.tokenToNodes[token][nodeId] = struct{}{}

		if ti.nodeToTokens[nodeId] == nil {
			ti.nodeToTokens[nodeId] = make(map[string]struct{})
		}
		ti.nodeToTokens[nodeId][token] = struct{}{}
	}
}

// Remove drops a node from both directions. Empty posting lists are pruned
// so the token map does not grow unbounded across rescans.
func (ti *TokenIndex) Remove(nodeId string) {
	tokens, ok := ti.nodeToTokens[nodeId]
	if !ok {
		return
	}
	for token := range tokens {
		if postings := ti.tokenToNodes[token]; postings != nil {
			delete(postings, nodeId)
			if len(postings) == 0 {
				delete(ti.tokenToNodes, token)
			}
		}
	}
	delete(ti.nodeToTokens, nodeId)
}

// FindByToken returns the ids of nodes containing a single token.
func (ti *TokenIndex) FindByToken(token string) map[string]struct{} {
	result := make(map[string]struct{}, len(ti.tokenToNodes[token]))
	for id := range ti.tokenToNodes[token] {
		result[id] = struct{}{}
	}
	return result
}

// FindByAny returns the union of posting lists for the given tokens.
func (ti *TokenIndex) FindByAny(tokens []string) map[string]struct{} {
	result := make(map[string]struct{})
	for _, token := range tokens {
		for id := range ti.tokenToNodes[token] {
			result[id] = struct{}{}
		}
	}
	return result
}

// FindByAll returns the intersection of posting lists. The intersection
// starts from the shortest list and shrinks from there, which keeps the
// average cost near the size of the result rather than the size of the
// largest posting list. Any empty list short-circuits to an empty result.
func (ti *TokenIndex) FindByAll(tokens []string) map[string]struct{} {
	if len(tokens) == 0 {
		return map[string]struct{}{}
	}

	sorted := make([]string, len(tokens))
	copy(sorted, tokens)
	sort.Slice(sorted, func(i, j int) bool {
		return len(ti.tokenToNodes[sorted[i]]) < len(ti.tokenToNodes[sorted[j]])
	})

	first := ti.tokenToNodes[sorted[0]]
	if len(first) == 0 {
		return map[string]struct{}{}
	}

	result := make(map[string]struct{}, len(first))
	for id := range first {
		result[id] = struct{}{}
	}

	for _, token := range sorted[1:] {
		postings := ti.tokenToNodes[token]
		for id := range result {
			if _, ok := postings[id]; !ok {
				delete(result, id)
			}
		}
		if len(result) == 0 {
			break
		}
	}
	return result
}

// TokenCount returns the number of distinct tokens indexed.
func (ti *TokenIndex) TokenCount() int {
	return len(ti.tokenToNodes)
}
