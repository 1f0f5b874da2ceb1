// Package creative holds the pure decision logic over ad creative
// records: format classification, destination URL extraction, and
// normalization of the nested story/asset specs that the API returns
// either as objects or as JSON-encoded strings.
package creative
