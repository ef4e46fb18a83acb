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

package database

const (
	// Status queries
	statusColumns = `id, name, color, created_at`

	queryGetStatusByName = `SELECT ` + statusColumns + ` FROM statuses WHERE name = ?`

	queryGetStatusById = `SELECT ` + statusColumns + ` FROM statuses WHERE id = ?`

	queryListStatuses = `SELECT ` + statusColumns + ` FROM statuses ORDER BY created_at, name`

	queryUpsertStatus = `
		INSERT INTO statuses (id, name, color, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET color = excluded.color`

	// Asset queries
	assetColumns = `
		a.id, a.code, a.name, a.serial_number, a.description,
		a.acquisition_cost, a.purchase_date, a.useful_life_years, a.book_value,
		a.status_id, s.name, a.employee_id, a.branch_id,
		a.defective_at, a.delete_after_at, a.version, a.created_at, a.updated_at`

	querySelectAssets = `
		SELECT ` + assetColumns + `
		FROM assets a
		JOIN statuses s ON s.id = a.status_id`

	queryGetAsset = querySelectAssets + ` WHERE a.id = ?`

	queryInsertAsset = `
		INSERT INTO assets (
			id, code, name, serial_number, description,
			acquisition_cost, purchase_date, useful_life_years, book_value,
			status_id, employee_id, branch_id,
			defective_at, delete_after_at, version, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	queryUpdateAsset = `
		UPDATE assets SET
			code = ?, name = ?, serial_number = ?, description = ?,
			acquisition_cost = ?, purchase_date = ?, useful_life_years = ?, book_value = ?,
			status_id = ?, employee_id = ?, branch_id = ?,
			defective_at = ?, delete_after_at = ?,
			version = version + 1, updated_at = ?
		WHERE id = ? AND version = ?`

	queryTransitionAssetStatus = `
		UPDATE assets
		SET status_id = ?, version = version + 1, updated_at = ?
		WHERE id = ? AND status_id = ?`

	queryDeleteAssetIfDue = `
		DELETE FROM assets
		WHERE id = ? AND delete_after_at IS NOT NULL AND delete_after_at <= ?`

	queryNextAssetCodeSequence = `
		INSERT INTO asset_code_sequences (prefix, last_value) VALUES (?, 1)
		ON CONFLICT(prefix) DO UPDATE SET last_value = last_value + 1
		RETURNING last_value`

	// Repair queries
	repairColumns = `
		id, asset_id, vendor_id, description, repair_date,
		expected_return_date, actual_return_date, repair_cost, state,
		delivered_by_employee, delivered_by_branch_id, job_order_document,
		invoice_no, completion_description, previous_status_id,
		version, created_at, updated_at`

	querySelectRepairs = `SELECT ` + repairColumns + ` FROM repairs`

	queryGetRepair = querySelectRepairs + ` WHERE id = ?`

	queryActiveRepairForAsset = querySelectRepairs + `
		WHERE asset_id = ? AND state <> 'returned'
		ORDER BY created_at DESC
		LIMIT 1`

	queryInsertRepair = `
		INSERT INTO repairs (` + repairColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	queryUpdateRepair = `
		UPDATE repairs SET
			vendor_id = ?, description = ?, repair_date = ?,
			expected_return_date = ?, actual_return_date = ?, repair_cost = ?, state = ?,
			delivered_by_employee = ?, delivered_by_branch_id = ?, job_order_document = ?,
			invoice_no = ?, completion_description = ?, previous_status_id = ?,
			version = version + 1, updated_at = ?
		WHERE id = ? AND version = ?`

	queryDeleteRepair = `DELETE FROM repairs WHERE id = ?`

	queryInsertRemark = `
		INSERT INTO repair_remarks (id, repair_id, kind, body, actor_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`

	queryListRemarks = `
		SELECT id, repair_id, kind, body, actor_id, created_at
		FROM repair_remarks
		WHERE repair_id = ?
		ORDER BY created_at, id`

	// Ledger queries
	movementColumns = `
		id, subject_type, subject_id, kind,
		from_employee, to_employee, from_status, to_status, from_branch, to_branch,
		actor_id, reason, remarks, metadata, moved_at, created_at,
		ip_address, user_agent, deleted_at, deleted_by, delete_reason`

	querySelectMovements = `SELECT ` + movementColumns + ` FROM movements`

	queryGetMovement = querySelectMovements + ` WHERE id = ?`

	queryInsertMovement = `
		INSERT INTO movements (` + movementColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	queryTombstoneMovement = `
		UPDATE movements
		SET deleted_at = ?, deleted_by = ?, delete_reason = ?
		WHERE id = ? AND deleted_at IS NULL`
)
