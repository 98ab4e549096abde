package inventory

// Sources bundles the per-service capabilities. A nil source disables its kind.
type Sources struct {
	Patch         PatchSource
	Groups        InstanceGroupSource
	ObjectStorage ObjectStorageSource
	FileStorage   FileStorageSource
	CloudGuard    CloudGuardSource
	Database      DatabaseSource
	LoadBalancer  LoadBalancerSource
	VPN           VPNSource
	Compute       ComputeSource
	Announcements AnnouncementSource
}

// Aggregators builds the aggregators of the requested kinds in report order.
func Aggregators(src Sources, kinds []Kind) []Aggregator {
	want := make(map[Kind]bool, len(kinds))
	for _, k := range kinds {
		want[k] = true
	}

	var out []Aggregator
	add := func(kind Kind, enabled bool, agg Aggregator) {
		if want[kind] && enabled {
			out = append(out, agg)
		}
	}
	add(KindPatch, src.Patch != nil, NewPatchAggregator(src.Patch))
	add(KindInstanceGroup, src.Groups != nil, NewInstanceGroupAggregator(src.Groups))
	add(KindObjectStorage, src.ObjectStorage != nil, NewObjectStorageAggregator(src.ObjectStorage))
	add(KindFileStorage, src.FileStorage != nil, NewFileStorageAggregator(src.FileStorage))
	add(KindCloudGuard, src.CloudGuard != nil, NewCloudGuardAggregator(src.CloudGuard))
	add(KindDatabase, src.Database != nil, NewDatabaseAggregator(src.Database))
	add(KindLoadBalancer, src.LoadBalancer != nil, NewLoadBalancerAggregator(src.LoadBalancer))
	add(KindVPN, src.VPN != nil, NewVPNAggregator(src.VPN))
	add(KindCompute, src.Compute != nil, NewComputeAggregator(src.Compute))
	add(KindAnnouncement, src.Announcements != nil, NewAnnouncementAggregator(src.Announcements))
	return out
}
