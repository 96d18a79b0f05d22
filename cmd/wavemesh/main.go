/*
Copyright © 2026 the wavemesh authors.
This file is part of wavemesh.

wavemesh is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

wavemesh is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with wavemesh.  If not, see <http://www.gnu.org/licenses/>.
*/

// Command wavemesh is a command-line interface for computing mesh
// sizing functions for ocean wave models.
package main

import (
	"fmt"
	"os"

	"github.com/oceanmodeling/wavemesh/wavemeshutil"
)

func main() {
	if err := wavemeshutil.Root.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
