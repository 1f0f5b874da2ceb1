// Package meta extracts Meta Ads datasets through the Graph API.
//
// One handler per dataset maps raw Graph records onto the flat rows
// described by the catalog. Handlers share a graph.Client and are
// failure-isolated per ad account: an account whose call came back
// incomplete contributes whatever was collected and the loop moves on.
// The adcreatives handler additionally drives the media search budget,
// handing matching creatives to a MediaStore.
package meta
