// Package ontology loads the magi and goetia knowledge bases that `invoke`,
// `hex` and friends resolve entity names against.
package ontology
