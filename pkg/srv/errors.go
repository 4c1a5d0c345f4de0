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

package srv

import (
	"errors"
	"fmt"
	"net/http"

	"jinr.ru/greenlab/go-roc/pkg/config"
	"jinr.ru/greenlab/go-roc/pkg/roc"
	"jinr.ru/greenlab/go-roc/pkg/transport"
)

// ErrSwagger returned when the embedded API document is invalid
type ErrSwagger struct {
	What string
}

func (e ErrSwagger) Error() string {
	return fmt.Sprintf("Bad API document: %s", e.What)
}

// errorStatus maps an error to the HTTP status returned to the client.
// Errors not known here get fallback.
func errorStatus(err error, fallback int) int {
	var unknownPage roc.ErrUnknownPage
	var unknownParameter roc.ErrUnknownParameter
	var unknownDirectAccess roc.ErrUnknownDirectAccess
	var chipNotFound config.ErrChipNotFound
	var malformed roc.ErrMalformedLocation
	var transportErr transport.ErrTransport
	switch {
	case errors.As(err, &unknownPage),
		errors.As(err, &unknownParameter),
		errors.As(err, &unknownDirectAccess),
		errors.As(err, &chipNotFound):
		return http.StatusNotFound
	case errors.As(err, &malformed):
		return http.StatusInternalServerError
	case errors.As(err, &transportErr):
		return http.StatusBadGateway
	}
	return fallback
}
