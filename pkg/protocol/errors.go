// SPDX-FileCopyrightText: 2023 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

package protocol

import "errors"

// ErrInvalidCipherSpec is returned when a ChangeCipherSpec record does not
// carry the single expected byte.
var ErrInvalidCipherSpec = errors.New("protocol: invalid change_cipher_spec body")
