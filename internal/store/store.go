// Package store persists events and reservations in MongoDB through mgo.
// Every operation copies the root session and closes the copy, so the
// pool is shared and each call gets a consistent socket.
package store

import (
	"fmt"

	"gopkg.in/mgo.v2"
)

const (
	colEventos  = "eventos"
	colReservas = "reservas"
	colDLQ      = "webhook_dlq"
)

type Store struct {
	sesion *mgo.Session
	db     string
}

// New dials MongoDB and ensures the indexes the system relies on:
// unique reservation codes and unique (sparse) order ids.
func New(url, database string) (*Store, error) {
	sesion, err := mgo.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("mongo dial: %w", err)
	}

	s := &Store{sesion: sesion, db: database}
	if err := s.ensureIndexes(); err != nil {
		sesion.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) ensureIndexes() error {
	ses := s.sesion.Copy()
	defer ses.Close()

	err := ses.DB(s.db).C(colReservas).EnsureIndex(mgo.Index{
		Key:    []string{"codigo"},
		Unique: true,
	})
	if err != nil {
		return fmt.Errorf("índice codigo: %w", err)
	}
	err = ses.DB(s.db).C(colReservas).EnsureIndex(mgo.Index{
		Key:    []string{"ordenid"},
		Unique: true,
		Sparse: true,
	})
	if err != nil {
		return fmt.Errorf("índice ordenid: %w", err)
	}
	err = ses.DB(s.db).C(colReservas).EnsureIndex(mgo.Index{
		Key: []string{"eventoid"},
	})
	if err != nil {
		return fmt.Errorf("índice eventoid: %w", err)
	}
	return nil
}

// Ping checks store connectivity, for the health endpoint.
func (s *Store) Ping() error {
	ses := s.sesion.Copy()
	defer ses.Close()
	return ses.Ping()
}

func (s *Store) Close() {
	s.sesion.Close()
}

// Eventos returns the event repository.
func (s *Store) Eventos() *Eventos {
	return &Eventos{s: s}
}

// Reservas returns the reservation repository.
func (s *Store) Reservas() *Reservas {
	return &Reservas{s: s}
}

// DLQ returns the webhook dead-letter repository.
func (s *Store) DLQ() *DLQ {
	return &DLQ{s: s}
}
