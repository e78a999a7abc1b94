// Package directory stores agent configurations by key. It provides an
// in-memory store, a YAML file store (agents.yaml) and a SQLite store, all
// behind the Store interface. Stores keep records in insertion order, reject
// duplicate keys on Create and apply updates with agentconfig.Merge.
package directory
