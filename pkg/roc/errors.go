/*
 Licensed under the Apache License, Version 2.0 (the "License");
 you may not use this file except in compliance with the License.
 You may obtain a copy of the License at

     https://www.apache.org/licenses/LICENSE-2.0

 Unless required by applicable law or agreed to in writing, software
 distributed under the License is distributed on an "AS IS" BASIS,
 WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 See the License for the specific language governing permissions and
 limitations under the License.
*/

package roc

import (
	"fmt"
)

// ErrUnknownPage returned when a page pattern matches no page of the catalog
type ErrUnknownPage struct {
	Pattern string
}

func (e ErrUnknownPage) Error() string {
	return fmt.Sprintf("Unknown page: %s", e.Pattern)
}

// ErrUnknownParameter returned when a parameter is absent from the schema of a resolved page
type ErrUnknownParameter struct {
	Page      string
	Parameter string
}

func (e ErrUnknownParameter) Error() string {
	return fmt.Sprintf("Unknown parameter %s on page %s", e.Parameter, e.Page)
}

// ErrMalformedLocation returned when a register location does not fit into one 8-bit register
type ErrMalformedLocation struct {
	Parameter string
	Location  RegisterLocation
}

func (e ErrMalformedLocation) Error() string {
	return fmt.Sprintf("Malformed location of parameter %s: register: %d min bit: %d bits: %d",
		e.Parameter, e.Location.Register, e.Location.MinBit, e.Location.NBits)
}

// ErrUnknownCatalog returned when there is no catalog for a chip type and version
type ErrUnknownCatalog struct {
	Type    string
	Version string
}

func (e ErrUnknownCatalog) Error() string {
	return fmt.Sprintf("Unknown catalog: type: %s version: %s", e.Type, e.Version)
}

// ErrCatalog returned when catalog data is inconsistent
type ErrCatalog struct {
	What string
}

func (e ErrCatalog) Error() string {
	return fmt.Sprintf("Error in catalog: %s", e.What)
}

// ErrUnknownDirectAccess returned when a direct access parameter is not in the catalog
type ErrUnknownDirectAccess struct {
	Name string
}

func (e ErrUnknownDirectAccess) Error() string {
	return fmt.Sprintf("Unknown direct access parameter: %s", e.Name)
}
