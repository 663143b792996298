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

package clipcast

const (
	AppName = "clipcast"
	Version = "0.3.1"
	Contact = "clipcast@defsub.com"
)
