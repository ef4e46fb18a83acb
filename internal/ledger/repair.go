/**
 * Copyright 2025-present Coinbase Global, Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *  http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package ledger

import (
	"encoding/json"
	"fmt"

	"asset-lifecycle-go/internal/models"
)

// RepairDeletion builds the metadata of a repair_deleted entry: the repair
// id, the state it was in and the full row as JSON.
func RepairDeletion(r *models.Repair) (models.Metadata, error) {
	snapshot, err := json.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("failed to snapshot repair %s: %w", r.Id, err)
	}
	metadata := models.Metadata{}
	metadata.Set(KeyRepairId, "", r.Id)
	metadata.Set(KeySnapshot, string(snapshot), "")
	metadata.Set(KeyState, string(r.State), "")
	return metadata, nil
}
