// Copyright 2025 KrakLabs
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published
// by the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.
//
// For commercial licensing, contact: licensing@kraklabs.com
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package store

import "fmt"

// Kind is the closed set of error kinds any component in the engine may
// surface, independent of the underlying storage or transport.
type Kind string

const (
	KindNotFound            Kind = "NotFound"
	KindConflict            Kind = "Conflict"
	KindInvalid             Kind = "Invalid"
	KindParseFailure        Kind = "ParseFailure"
	KindProviderUnavailable Kind = "ProviderUnavailable"
	KindCancelled           Kind = "Cancelled"
	KindStorage             Kind = "Storage"
)

// Error is a kinded error that names the offending subject (a file path,
// entity id, or session id) so user-facing reporting never has to guess.
type Error struct {
	Kind    Kind
	Subject string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Subject != "" {
		return fmt.Sprintf("%s: %s: %s", e.Kind, e.Subject, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// Is allows errors.Is(err, store.Error{Kind: store.KindNotFound}) style
// matching against just the Kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Kind == "" {
		return false
	}
	return e.Kind == t.Kind
}

func newErr(kind Kind, subject, message string, err error) *Error {
	return &Error{Kind: kind, Subject: subject, Message: message, Err: err}
}

func NotFound(subject, message string) *Error {
	return newErr(KindNotFound, subject, message, nil)
}

func Conflict(subject, message string) *Error {
	return newErr(KindConflict, subject, message, nil)
}

func Invalid(subject, message string) *Error {
	return newErr(KindInvalid, subject, message, nil)
}

func ParseFailure(subject, message string, err error) *Error {
	return newErr(KindParseFailure, subject, message, err)
}

func ProviderUnavailable(subject, message string, err error) *Error {
	return newErr(KindProviderUnavailable, subject, message, err)
}

func Cancelled(subject string) *Error {
	return newErr(KindCancelled, subject, "operation cancelled", nil)
}

func Storage(subject, message string, err error) *Error {
	return newErr(KindStorage, subject, message, err)
}

// IsKind reports whether err (or any error it wraps) is a *Error of kind k.
func IsKind(err error, k Kind) bool {
	var se *Error
	for err != nil {
		if e, ok := err.(*Error); ok {
			se = e
			break
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return se != nil && se.Kind == k
}
