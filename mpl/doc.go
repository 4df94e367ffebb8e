// Package mpl implements the Magick Programming Language: a scanner, a
// recursive-descent parser and a tree-walking evaluator that runs ritual
// verbs (bind, invoke, cycle, circle, hex, pact and friends) against one
// flat environment per session.
//
// Entity lookup, standard-library modules and output are supplied by the
// host through Config.
package mpl
