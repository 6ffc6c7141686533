package models

import "time"

// LocalKeyed is implemented by every syncable entity: it exposes the
// store-assigned key without giving callers a way to change it.
type LocalKeyed interface {
	LocalKey() int64
	ServerKey() int64
}

// SyncStamped is implemented by entities that track when the sync engine
// last wrote them.
type SyncStamped interface {
	StampSynced(t time.Time)
}

func (u *Unit) StampSynced(t time.Time)             { u.LastSyncedAt = t }
func (c *Category) StampSynced(t time.Time)         { c.LastSyncedAt = t }
func (b *Brand) StampSynced(t time.Time)            { b.LastSyncedAt = t }
func (r *SalesRoute) StampSynced(t time.Time)       { r.LastSyncedAt = t }
func (u *UserAccount) StampSynced(t time.Time)      { u.LastSyncedAt = t }
func (p *Product) StampSynced(t time.Time)          { p.LastSyncedAt = t }
func (c *Customer) StampSynced(t time.Time)         { c.LastSyncedAt = t }
func (o *Order) StampSynced(t time.Time)            { o.LastSyncedAt = t }
func (l *OrderLine) StampSynced(t time.Time)        { l.LastSyncedAt = t }
func (m *OutOfStockMaster) StampSynced(t time.Time) { m.LastSyncedAt = t }
func (l *OutOfStockLine) StampSynced(t time.Time)   { l.LastSyncedAt = t }

// ServerKeySettable is implemented by entities that can be born locally:
// their server key arrives later, from the upload response.
type ServerKeySettable interface {
	SetServerKey(int64)
}

func (c *Customer) SetServerKey(id int64)         { c.ServerID = id }
func (o *Order) SetServerKey(id int64)            { o.ServerID = id }
func (l *OrderLine) SetServerKey(id int64)        { l.ServerID = id }
func (m *OutOfStockMaster) SetServerKey(id int64) { m.ServerID = id }
func (l *OutOfStockLine) SetServerKey(id int64)   { l.ServerID = id }

func (u *Unit) LocalKey() int64  { return u.LocalID }
func (u *Unit) ServerKey() int64 { return u.ServerID }

func (c *Category) LocalKey() int64  { return c.LocalID }
func (c *Category) ServerKey() int64 { return c.ServerID }

func (b *Brand) LocalKey() int64  { return b.LocalID }
func (b *Brand) ServerKey() int64 { return b.ServerID }

func (r *SalesRoute) LocalKey() int64  { return r.LocalID }
func (r *SalesRoute) ServerKey() int64 { return r.ServerID }

func (u *UserAccount) LocalKey() int64  { return u.LocalID }
func (u *UserAccount) ServerKey() int64 { return u.ServerID }

func (p *Product) LocalKey() int64  { return p.LocalID }
func (p *Product) ServerKey() int64 { return p.ServerID }

func (c *Customer) LocalKey() int64  { return c.LocalID }
func (c *Customer) ServerKey() int64 { return c.ServerID }

func (o *Order) LocalKey() int64  { return o.LocalID }
func (o *Order) ServerKey() int64 { return o.ServerID }

func (l *OrderLine) LocalKey() int64  { return l.LocalID }
func (l *OrderLine) ServerKey() int64 { return l.ServerID }

func (m *OutOfStockMaster) LocalKey() int64  { return m.LocalID }
func (m *OutOfStockMaster) ServerKey() int64 { return m.ServerID }

func (l *OutOfStockLine) LocalKey() int64  { return l.LocalID }
func (l *OutOfStockLine) ServerKey() int64 { return l.ServerID }
