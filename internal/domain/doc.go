// Package domain models storm events and the runoff they produce over
// drainage subcatchments.
//
// # Rain Log Format
//
// The gauge log is comma-separated text, one reading per line:
//
//	col 0   date            M/D/YYYY, e.g. "9/23/2015"
//	col 1   time            H:MM:SS, 24-hour, e.g. "0:21:02"
//	col 3   increment       inches of rain since the previous reading
//	col 14  cumulative min  minutes since storm start (extended format)
//	col 15  cumulative in   inches since storm start (extended format)
//
// A line whose first field is empty separates storms. Repeated separators
// collapse into one. A line whose first field is "Date" is a header and is
// ignored. Timestamps carry no zone and are read as UTC.
//
// Within a storm the readings are sorted by timestamp, so storms logged
// newest-first and oldest-first segment identically. When the extended
// columns are present the latest reading's cumulative total is
// authoritative and must match the summed increments to within
// [TotalTolerance]. Negative or non-finite values are malformed.
// Single-reading storms are given [DefaultStormDuration].
//
// # Parameter Table Format
//
// Subcatchment parameters follow the CUHP column order with no header:
//
//	col 0   name
//	col 3   area                       square miles
//	col 7   imperviousness             percent (50, not 0.5)
//	col 8   pervious depression        inches
//	col 9   impervious depression      inches
//	col 10  Horton initial rate f0     in/hr
//	col 11  Horton decay k             1/sec
//	col 12  Horton final rate fc       in/hr
//
// Other columns are carried by the table but unused here.
//
// # Volume Model
//
// Area converts to acres (x640) and splits by imperviousness. The
// impervious part loses only depression storage; the pervious part also
// loses Horton infiltration over the storm duration:
//
//	F(t) = fc*t + (f0-fc)/k * (1 - exp(-k*t))
//
// with t and k converted to hours. Depths over each area divide by 12 to
// give acre-feet. Negative component volumes are floored at zero before
// the total is formed.
package domain
