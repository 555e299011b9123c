// Package output renders command results as a table, JSON or YAML.
//
// JSON and YAML render any value; YAML keeps the key order and number text
// of the JSON form. Tables are built by values implementing Tabler, and
// other values fall back to JSON.
package output
