// Copyright (C) 2023 The Clipcast Authors.
//
// This file is part of Clipcast.
//
// Clipcast is free software: you can redistribute it and/or modify it under the
// terms of the GNU Affero General Public License as published by the Free
// Software Foundation, either version 3 of the License, or (at your option)
// any later version.
//
// Clipcast is distributed in the hope that it will be useful, but WITHOUT ANY
// WARRANTY; without even the implied warranty of MERCHANTABILITY or FITNESS
// FOR A PARTICULAR PURPOSE.  See the GNU Affero General Public License for
// more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with Clipcast.  If not, see <https://www.gnu.org/licenses/>.

package clipper

import (
	"context"

	"github.com/google/uuid"
)

// AuthURL returns the platform consent URL for linking a new
// destination account.
func (c *Clipper) AuthURL() string {
	return c.platform.AuthURL(uuid.NewString())
}

// LinkAccount exchanges the consent code and stores the new
// destination account with its token pair.
func (c *Clipper) LinkAccount(ctx context.Context, name, code string) (*DestinationAccount, error) {
	token, err := c.platform.Exchange(ctx, code)
	if err != nil {
		return nil, err
	}
	account := DestinationAccount{
		Name:         name,
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		TokenExpiry:  token.Expiry.UTC(),
		Active:       true,
	}
	err = c.CreateAccount(&account)
	if err != nil {
		return nil, err
	}
	return &account, nil
}
