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
	_ "embed"
	"encoding/json"

	"github.com/go-openapi/loads"
)

//go:embed swagger.json
var swaggerJSON []byte

// LoadSwagger analyzes the API document served at /api/swagger.json
func LoadSwagger() (*loads.Document, error) {
	doc, err := loads.Analyzed(json.RawMessage(swaggerJSON), "")
	if err != nil {
		return nil, ErrSwagger{What: err.Error()}
	}
	if doc.Spec().Info == nil || doc.Spec().Info.Title == "" {
		return nil, ErrSwagger{What: "no title"}
	}
	return doc, nil
}
