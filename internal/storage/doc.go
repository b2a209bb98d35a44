package storage

// Package storage provides the durable key-value blob layer used by the
// settings and history stores.
//
// Each store owns a fixed key and reads/writes its whole blob on every
// mutation. The on-disk encoding is JSON; it is not a compatibility surface.
